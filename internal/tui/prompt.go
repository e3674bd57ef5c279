package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/producttrack/producttrack/internal/account"
)

// Prompt represents a simple interactive prompt configuration
type Prompt struct {
	Message     string
	Default     string
	Placeholder string
	Required    bool
	Secret      bool
	Validate    func(string) error
}

func (p Prompt) input(value *string) *huh.Input {
	in := huh.NewInput().
		Title(p.Message).
		Placeholder(p.Placeholder).
		Value(value)
	if p.Secret {
		in = in.EchoMode(huh.EchoModePassword)
	}
	in = in.Validate(func(s string) error {
		if p.Required && strings.TrimSpace(s) == "" {
			return fmt.Errorf("value is required")
		}
		if p.Validate != nil && s != "" {
			return p.Validate(s)
		}
		return nil
	})
	return in
}

// PromptForString displays an interactive prompt and returns the user's input
func PromptForString(p Prompt) (string, error) {
	value := p.Default
	form := huh.NewForm(huh.NewGroup(p.input(&value)))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	value = strings.TrimSpace(value)
	if p.Required && value == "" {
		return "", fmt.Errorf("value is required")
	}
	return value, nil
}

// PromptLogin asks for the sign-in credentials. A non-empty email skips the
// email question.
func PromptLogin(email string) (string, string, error) {
	var password string
	fields := []huh.Field{}
	if email == "" {
		fields = append(fields, Prompt{Message: "Email", Placeholder: "you@example.com", Required: true}.input(&email))
	}
	fields = append(fields, Prompt{Message: "Password", Required: true, Secret: true}.input(&password))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", "", fmt.Errorf("prompt failed: %w", err)
	}
	return strings.TrimSpace(email), password, nil
}

// PromptCompleteProfile asks for the details a first sign-in must set.
func PromptCompleteProfile(current string) (account.ProfileDetails, error) {
	d := account.ProfileDetails{Username: current}
	var confirm string

	form := huh.NewForm(huh.NewGroup(
		Prompt{Message: "Username", Required: true}.input(&d.Username),
		Prompt{Message: "Phone"}.input(&d.Phone),
		Prompt{Message: "Address"}.input(&d.Address),
		Prompt{Message: "New password", Required: true, Secret: true, Validate: account.ValidatePassword}.input(&d.Password),
		Prompt{Message: "Confirm new password", Required: true, Secret: true, Validate: func(s string) error {
			if s != d.Password {
				return fmt.Errorf("passwords do not match")
			}
			return nil
		}}.input(&confirm),
	).Title("Complete your profile"))

	if err := form.Run(); err != nil {
		return account.ProfileDetails{}, fmt.Errorf("prompt failed: %w", err)
	}
	d.Username = strings.TrimSpace(d.Username)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	return d, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// PromptForSelect displays a selection prompt with multiple options
func PromptForSelect(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt, opt)
	}

	var selected string
	selectField := huh.NewSelect[string]().
		Title(message).
		Options(huhOptions...).
		Value(&selected)

	form := huh.NewForm(huh.NewGroup(selectField))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	return selected, nil
}

// PromptForMultiSelect displays a multi-selection prompt. Options listed in
// selected start checked.
func PromptForMultiSelect(message string, options []string, selected []string) ([]string, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("no options provided")
	}

	checked := make(map[string]bool, len(selected))
	for _, s := range selected {
		checked[s] = true
	}
	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt, opt).Selected(checked[opt])
	}

	var chosen []string
	multiSelect := huh.NewMultiSelect[string]().
		Title(message).
		Options(huhOptions...).
		Value(&chosen)

	form := huh.NewForm(huh.NewGroup(multiSelect))

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}

	return chosen, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
