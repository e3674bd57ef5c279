package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/ux"
	"github.com/producttrack/producttrack/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().Bool("json", false, "output version information as JSON")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	info := version.GetInfo()
	out := cmd.OutOrStdout()

	format := cmdCtx.Format
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		format = "json"
	}
	if format == "json" || format == "yaml" {
		f, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: out})
		if err != nil {
			return err
		}
		return f.Format(info)
	}

	if cmdCtx.Verbose {
		fmt.Fprintln(out, info.String())
		return nil
	}
	fmt.Fprintf(out, "producttrack %s\n", info.Version)
	return nil
}
