package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "producttrack",
	Short: "Inventory tracking from the terminal",
	Long: `producttrack is the terminal client for the ProductTrack inventory service.

It signs you in, keeps your session between runs and shows only the sections
your account may use: inventory and history for individual and business
accounts, team management for business owners, audit screens for
administrators and developers, NutriScan label analysis and notification
settings.

Run 'producttrack open' for the full-screen interface, or use the commands
below from scripts. Output formats: text, json, yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "print only essential output")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format: text, json, yaml (default from config)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("home", "", "state directory (default $PRODUCTTRACK_HOME or ~/.producttrack)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (default from config)")
}
