package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/producttrack/producttrack/internal/config"
	"github.com/producttrack/producttrack/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit producttrack configuration",
	Long: `Manage the configuration stored at ~/.producttrack/config.yaml, or under
the directory given by --home or PRODUCTTRACK_HOME.

Configuration includes:
  • The backend URL and request timeout
  • The token signing secret, when tokens should be verified locally
  • Default output format and color
  • Logging settings

PRODUCTTRACK_* environment variables, also read from .env in the home
directory, override the file.

Examples:
  # View the effective configuration
  producttrack config view

  # Point the client at another backend
  producttrack config set api.url https://inventario.example.com/api

  # Show where the file lives
  producttrack config path`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Long:  `Display the configuration after environment overrides. Secrets are redacted.`,
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration file in $EDITOR",
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a configuration value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys,
	RunE:      runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set a configuration value in the file",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys,
	RunE:      runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configHome resolves the home directory without loading the configuration,
// so a broken file can still be inspected and fixed.
func configHome(cmd *cobra.Command) (*CommandContext, string, error) {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create command context: %w", err)
	}
	home, err := config.ResolveHome(cmdCtx.Home)
	if err != nil {
		return nil, "", err
	}
	return cmdCtx, home, nil
}

func runConfigView(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	cfg := s.cfg.Redacted()

	if s.structured() {
		return s.out.Format(cfg)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n\n", config.Path(s.home))
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	_, home, err := configHome(cmd)
	if err != nil {
		return err
	}
	path := config.Path(home)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(config.Default(), path); err != nil {
			return ux.FormatError(err, "creating configuration")
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	cfg, err := config.LoadFile(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: the configuration may contain errors: %v\n", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	value, err := s.cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

// runConfigSet edits the file only; environment overrides are not written
// back.
func runConfigSet(cmd *cobra.Command, args []string) error {
	cmdCtx, home, err := configHome(cmd)
	if err != nil {
		return err
	}
	path := config.Path(home)

	cfg, err := config.LoadFile(path)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return ux.FormatError(err, "saving configuration")
	}

	if !cmdCtx.Quiet {
		value := args[1]
		if args[0] == "session.token_secret" {
			value = "********"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", args[0], value)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	_, home, err := configHome(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), config.Path(home))
	return nil
}
