package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/producttrack/producttrack/internal/api"
)

type scanStep int

const (
	scanPick scanStep = iota
	scanConfirm
	scanDone
	scanHistory
)

// nutriScanScreen uploads a label photo and shows the analysis. When the
// analyzer is unsure of the product it asks for the name first.
type nutriScanScreen struct {
	base
	step    scanStep
	image   textinput.Model
	name    textinput.Model
	result  *api.ScanResult
	out     viewport.Model
	records []api.ScanRecord
}

func newNutriScanScreen(b base) *nutriScanScreen {
	image := textinput.New()
	image.Placeholder = "/path/to/label.jpg"
	image.Prompt = "Image: "
	image.Width = 50
	image.CharLimit = 1024

	name := textinput.New()
	name.Prompt = "Product name: "
	name.Width = 40

	return &nutriScanScreen{base: b, image: image, name: name, out: viewport.New(76, 16)}
}

func (s *nutriScanScreen) Init() tea.Cmd { return s.image.Focus() }

func (s *nutriScanScreen) Capturing() bool {
	return s.step == scanPick || s.step == scanConfirm
}

func (s *nutriScanScreen) Keys() []key.Binding {
	switch s.step {
	case scanPick:
		return []key.Binding{binding("enter", "analyze"), binding("ctrl+r", "my analyses")}
	case scanConfirm:
		return []key.Binding{binding("enter", "confirm name"), binding("esc", "start over")}
	}
	return []key.Binding{binding("esc", "new analysis"), key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll"))}
}

func (s *nutriScanScreen) restart() tea.Cmd {
	s.step = scanPick
	s.result = nil
	s.name.Blur()
	s.name.Reset()
	s.image.Reset()
	return s.image.Focus()
}

func (s *nutriScanScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resultMsg:
		s.loading = false
		if msg.err != nil {
			return failed(msg.err)
		}
		switch msg.key {
		case "analyze", "confirm":
			s.result = msg.value.(*api.ScanResult)
			if s.result.NeedsConfirmation {
				s.step = scanConfirm
				s.image.Blur()
				s.name.SetValue(s.result.Suggestion)
				return s.name.Focus()
			}
			s.step = scanDone
			s.name.Blur()
			s.image.Blur()
			s.out.SetContent(s.result.Message)
			s.out.GotoTop()
		case "history":
			s.records = msg.value.([]api.ScanRecord)
			s.step = scanHistory
			s.image.Blur()
			s.out.SetContent(historyText(s.records))
			s.out.GotoTop()
		}
		return nil

	case tea.KeyMsg:
		if s.loading {
			return nil
		}
		switch s.step {
		case scanPick:
			return s.updatePick(msg)
		case scanConfirm:
			switch msg.String() {
			case "esc":
				return s.restart()
			case "enter":
				name := strings.TrimSpace(s.name.Value())
				if name == "" || s.result == nil {
					return notice(toastWarning, "Enter the product name")
				}
				client, id := s.env.API, s.result.Record.ID
				return s.run("confirm", func(ctx context.Context) (any, error) {
					return client.ConfirmName(ctx, id, name)
				})
			}
			var cmd tea.Cmd
			s.name, cmd = s.name.Update(msg)
			return cmd
		default:
			if msg.String() == "esc" {
				return s.restart()
			}
			var cmd tea.Cmd
			s.out, cmd = s.out.Update(msg)
			return cmd
		}
	}
	return nil
}

func (s *nutriScanScreen) updatePick(km tea.KeyMsg) tea.Cmd {
	switch km.String() {
	case "enter":
		path := strings.TrimSpace(s.image.Value())
		if path == "" {
			return notice(toastWarning, "Enter the path of a label photo")
		}
		client := s.env.API
		return s.run("analyze", func(ctx context.Context) (any, error) {
			return client.AnalyzeFile(ctx, path)
		})
	case "ctrl+r":
		sess := s.env.session()
		if sess == nil {
			return nil
		}
		client, uid := s.env.API, sess.UserID
		return s.run("history", func(ctx context.Context) (any, error) {
			return client.ScanRecordsByUser(ctx, uid)
		})
	}
	var cmd tea.Cmd
	s.image, cmd = s.image.Update(km)
	return cmd
}

func historyText(records []api.ScanRecord) string {
	if len(records) == 0 {
		return "No analyses yet."
	}
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "#%d  %s  %s\n", r.ID, r.AnalyzedAt, r.Query)
		if r.Response != nil {
			first, _, _ := strings.Cut(r.Response.Message, "\n")
			fmt.Fprintf(&b, "     %s\n", first)
		}
	}
	return b.String()
}

func (s *nutriScanScreen) View() string {
	st := s.env.styles
	rows := []string{s.header()}
	switch s.step {
	case scanPick:
		rows = append(rows,
			st.Subtitle.Render("Analyze a nutrition label photo ("+strings.Join(api.ImageExtensions, ", ")+")."),
			s.image.View())
	case scanConfirm:
		rows = append(rows, st.Warning.Render("The product could not be identified with certainty."))
		if s.result.Suggestion != "" {
			rows = append(rows, st.Muted.Render("Suggested: "+s.result.Suggestion))
		}
		rows = append(rows, s.name.View())
	case scanDone:
		rows = append(rows, st.Success.Render("Analysis"), st.Border.Render(s.out.View()))
	case scanHistory:
		rows = append(rows, st.Subtitle.Render(fmt.Sprintf("Your analyses (%d)", len(s.records))), st.Border.Render(s.out.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
