package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/tui"
)

var nutriScanCmd = &cobra.Command{
	Use:   "nutriscan",
	Short: "Analyze nutrition labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func scanDetail(res *api.ScanResult) string {
	var b strings.Builder
	b.WriteString(res.Message)
	if res.NeedsConfirmation {
		b.WriteString("\n\nThe product name could not be read with confidence.")
		if res.Suggestion != "" {
			b.WriteString(" Suggested: " + res.Suggestion)
		}
	}
	return b.String()
}

var nutriScanAnalyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a photo of a nutrition label",
	Long: `Upload a photo of a nutrition label (jpg, jpeg, png or webp) and print
the analysis.

When the product name cannot be read, the backend asks for it: pass --name,
answer the prompt, or run 'producttrack nutriscan confirm' later.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathNutriScan); err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")

		res, err := a.client.AnalyzeFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		a.logger.Info("label analyzed", "record_id", res.Record.ID, "needs_confirmation", res.NeedsConfirmation)

		if res.NeedsConfirmation {
			if name == "" && tui.ShouldPrompt() && !a.structured() {
				a.say("%s", scanDetail(res))
				name, err = tui.PromptForString(tui.Prompt{
					Message:  "Product name",
					Default:  res.Suggestion,
					Required: true,
				})
				if err != nil {
					return err
				}
			}
			if name != "" {
				if res, err = a.client.ConfirmName(cmd.Context(), res.Record.ID, name); err != nil {
					return err
				}
			}
		}

		if a.structured() {
			return a.emit(detail(res))
		}
		a.say("%s", scanDetail(res))
		if res.NeedsConfirmation {
			a.say("\nConfirm with: producttrack nutriscan confirm %d \"<product name>\"", res.Record.ID)
		}
		return nil
	}),
}

var nutriScanConfirmCmd = &cobra.Command{
	Use:   "confirm <record-id> <product-name>",
	Short: "Give the product name for an analysis that asked for it",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathNutriScan); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		name := strings.TrimSpace(args[1])
		if name == "" {
			return usageError("the product name cannot be empty")
		}
		res, err := a.client.ConfirmName(cmd.Context(), id, name)
		if err != nil {
			return err
		}
		if a.structured() {
			return a.emit(detail(res))
		}
		a.say("%s", scanDetail(res))
		return nil
	}),
}

var nutriScanHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past analyses",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathNutriScan); err != nil {
			return err
		}
		s, _ := a.session()
		records, err := a.client.ScanRecordsByUser(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		return a.emit(scanTable(records))
	}),
}

func init() {
	nutriScanAnalyzeCmd.Flags().String("name", "", "product name to use if the label's is unreadable")

	nutriScanCmd.AddCommand(nutriScanAnalyzeCmd)
	nutriScanCmd.AddCommand(nutriScanConfirmCmd)
	nutriScanCmd.AddCommand(nutriScanHistoryCmd)
	rootCmd.AddCommand(nutriScanCmd)
}
