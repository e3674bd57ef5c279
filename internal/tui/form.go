package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// field is a text input or, when options is set, a choice cycled with
// left and right.
type field struct {
	label    string
	input    textinput.Model
	required bool
	options  []string
	choice   int
	validate func(string) error
}

func textField(label, placeholder string, required bool) field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = ""
	in.CharLimit = 200
	in.Width = 36
	return field{label: label, input: in, required: required}
}

func secretField(label string, required bool) field {
	f := textField(label, "", required)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(label string, options ...string) field {
	return field{label: label, options: options}
}

func (f field) withValidator(v func(string) error) field {
	f.validate = v
	return f
}

func (f field) value() string {
	if f.options != nil {
		return f.options[f.choice]
	}
	if f.input.EchoMode == textinput.EchoPassword {
		return f.input.Value()
	}
	return strings.TrimSpace(f.input.Value())
}

// form is a vertical list of fields submitted with enter on the last one.
type form struct {
	fields []field
	focus  int
	err    string
	submit string
}

func newForm(submit string, fields ...field) *form {
	return &form{fields: fields, submit: submit}
}

// Focus focuses the first field.
func (f *form) Focus() tea.Cmd {
	f.focus = 0
	return f.refocus()
}

func (f *form) refocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fields {
		if f.fields[i].options != nil {
			continue
		}
		if i == f.focus {
			cmd = f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	return cmd
}

// Update handles a message and reports whether the form was submitted
// with valid values.
func (f *form) Update(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		cur := &f.fields[f.focus]
		switch km.String() {
		case "tab", "down":
			f.focus = (f.focus + 1) % len(f.fields)
			return false, f.refocus()
		case "shift+tab", "up":
			f.focus = (f.focus - 1 + len(f.fields)) % len(f.fields)
			return false, f.refocus()
		case "enter":
			if f.focus < len(f.fields)-1 {
				f.focus++
				return false, f.refocus()
			}
			return f.Validate(), nil
		case "left", "right", " ":
			if cur.options != nil {
				if km.String() == "left" {
					cur.choice = (cur.choice - 1 + len(cur.options)) % len(cur.options)
				} else {
					cur.choice = (cur.choice + 1) % len(cur.options)
				}
				return false, nil
			}
		}
	}

	cur := &f.fields[f.focus]
	if cur.options != nil {
		return false, nil
	}
	var cmd tea.Cmd
	cur.input, cmd = cur.input.Update(msg)
	return false, cmd
}

// Validate checks required and custom rules, recording the first failure.
func (f *form) Validate() bool {
	f.err = ""
	for _, fl := range f.fields {
		v := fl.value()
		if fl.required && v == "" {
			f.err = fmt.Sprintf("%s is required", fl.label)
			return false
		}
		if fl.validate != nil && v != "" {
			if err := fl.validate(v); err != nil {
				f.err = fmt.Sprintf("%s: %v", fl.label, err)
				return false
			}
		}
	}
	return true
}

// Fail records a validation message from the owning screen.
func (f *form) Fail(msg string) { f.err = msg }

func (f *form) Value(i int) string { return f.fields[i].value() }

func (f *form) SetValue(i int, v string) {
	fl := &f.fields[i]
	if fl.options == nil {
		fl.input.SetValue(v)
		return
	}
	for j, o := range fl.options {
		if o == v {
			fl.choice = j
		}
	}
}

// Reset clears every input and the error.
func (f *form) Reset() {
	for i := range f.fields {
		f.fields[i].input.Reset()
		f.fields[i].choice = 0
	}
	f.err = ""
}

func (f *form) View(st Styles) string {
	rows := make([]string, 0, len(f.fields)+2)
	for i, fl := range f.fields {
		label := fl.label
		if fl.required {
			label += " *"
		}
		var value string
		if fl.options != nil {
			value = "‹ " + fl.options[fl.choice] + " ›"
		} else {
			value = fl.input.View()
		}
		line := st.Label.Render(label) + value
		if i == f.focus {
			line = st.Status.Render("> ") + line
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", st.Muted.Render("  tab: next field · enter on last field: "+f.submit))
	if f.err != "" {
		rows = append(rows, st.Error.Render("  "+f.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func minLength(n int) func(string) error {
	return func(s string) error {
		if len([]rune(s)) < n {
			return fmt.Errorf("must be at least %d characters", n)
		}
		return nil
	}
}

func looksLikeEmail(s string) error {
	at := strings.Index(s, "@")
	if at < 1 || !strings.Contains(s[at:], ".") {
		return fmt.Errorf("not a valid email address")
	}
	return nil
}
