package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/guard"
)

type legalSection struct {
	title string
	body  string
}

var termsSections = []legalSection{
	{"1. Aceptación de los Términos", "Al crear una cuenta o usar ProductTrack aceptas estos términos. Si no estás de acuerdo, no utilices el servicio."},
	{"2. Descripción del Servicio", "ProductTrack permite registrar productos, controlar existencias y fechas de vencimiento, recibir notificaciones y, para empresas, trabajar en equipo sobre un inventario compartido."},
	{"3. Registro y Cuenta de Usuario", "Debes proporcionar información veraz y mantener la confidencialidad de tu contraseña. Eres responsable de la actividad realizada con tu cuenta."},
	{"4. Uso Aceptable", "No puedes usar el servicio para actividades ilícitas, intentar acceder a cuentas ajenas ni interferir con su funcionamiento."},
	{"5. Privacidad y Protección de Datos", "El tratamiento de tus datos se describe en la Política de Privacidad."},
	{"6. Propiedad Intelectual", "El software, la marca y los contenidos de ProductTrack pertenecen a sus titulares. Tus datos de inventario son tuyos."},
	{"7. Limitación de Responsabilidad", "El servicio se ofrece tal cual. No respondemos por pérdidas derivadas de datos ingresados incorrectamente."},
	{"8. Terminación", "Podemos suspender cuentas que incumplan estos términos. Puedes dejar de usar el servicio en cualquier momento."},
	{"9. Modificaciones del Servicio", "Podemos actualizar el servicio y estos términos; te avisaremos mediante notificaciones de actualización."},
	{"10. Contacto", "Escríbenos a soporte@producttrack.com."},
}

var privacySections = []legalSection{
	{"1. Información que Recopilamos", "Datos de registro (nombre, correo, teléfono, dirección, empresa y NIT) e información de uso del inventario."},
	{"2. Cómo Utilizamos su Información", "Para prestar el servicio, enviar notificaciones de stock y vencimiento, y mejorar la aplicación."},
	{"3. Compartir Información", "No vendemos tus datos. Solo los compartimos con proveedores necesarios para operar el servicio o cuando la ley lo exige."},
	{"4. Seguridad de los Datos", "Usamos cifrado, acceso controlado por roles, monitoreo y respaldos seguros."},
	{"5. Sus Derechos y Opciones", "Puedes consultar, corregir y solicitar la eliminación de tus datos, y ajustar tus preferencias de notificación."},
	{"6. Cookies y Tecnologías Similares", "El cliente guarda localmente la sesión y algunas preferencias necesarias para funcionar."},
	{"7. Retención de Datos", "Conservamos los datos mientras la cuenta esté activa y durante los plazos legales aplicables."},
	{"8. Transferencias Internacionales", "Tus datos pueden procesarse fuera de tu país con garantías adecuadas."},
	{"9. Menores de Edad", "El servicio no está dirigido a menores de 18 años."},
	{"10. Contacto y Ejercicio de Derechos", "Escríbenos a privacidad@producttrack.com."},
}

// legalScreen shows the terms of service or the privacy policy.
type legalScreen struct {
	base
	viewport viewport.Model
}

func newLegalScreen(b base) *legalScreen {
	sections := termsSections
	if b.path == guard.PathPrivacy {
		sections = privacySections
	}

	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(b.env.styles.Status.Render(s.title))
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(72).Render(s.body))
		sb.WriteString("\n\n")
	}

	vp := viewport.New(76, 18)
	vp.SetContent(sb.String())
	return &legalScreen{base: b, viewport: vp}
}

func (s *legalScreen) Keys() []key.Binding {
	return []key.Binding{key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")), binding("esc", "back to register")}
}

func (s *legalScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return navigate(guard.PathRegister)
		}
	case tea.WindowSizeMsg:
		if msg.Height > 12 {
			s.viewport.Height = msg.Height - 12
		}
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

func (s *legalScreen) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, s.header(), s.viewport.View())
}
