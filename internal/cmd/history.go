package cmd

import (
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/ux"
)

var historyActions = []string{api.ActionAdded, api.ActionModified, api.ActionDeleted}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show inventory changes, newest first",
	Long: `Show the changes made to your inventory, newest first.

Actions: agregado (added), modificado (modified), eliminado (deleted).

Examples:
  producttrack history
  producttrack history --action modificado --limit 10`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixHistory); err != nil {
			return err
		}
		action, _ := cmd.Flags().GetString("action")
		limit, _ := cmd.Flags().GetInt("limit")
		action = strings.ToLower(strings.TrimSpace(action))
		if action != "" && !slices.Contains(historyActions, action) {
			return usageError("unknown action %q (use one of: %s)", action, strings.Join(historyActions, ", "))
		}

		s, _ := a.session()
		entries, err := a.client.History(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		api.NewestFirst(entries)

		kept := make([]api.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			if action != "" && e.Kind() != action {
				continue
			}
			kept = append(kept, e)
			if limit > 0 && len(kept) == limit {
				break
			}
		}
		return a.emit(historyTable(kept))
	}),
}

func historyTable(entries []api.HistoryEntry) *ux.Table {
	t := &ux.Table{
		Headers: []string{"When", "Product", "Action", "Quantity", "Price"},
		Data:    entries,
		Empty:   "No changes recorded.",
	}
	for _, e := range entries {
		when := e.ChangedAt
		if ts, ok := e.Time(); ok {
			when = ts.Format("2006-01-02 15:04")
		}
		t.Rows = append(t.Rows, []string{
			when,
			e.ProductName,
			e.Kind(),
			change(intString(e.PreviousQuantity), intString(e.NewQuantity)),
			change(priceString(e.PreviousPrice), priceString(e.NewPrice)),
		})
	}
	return t
}

// change renders a before/after pair, collapsing unchanged or one-sided
// values.
func change(before, after string) string {
	switch {
	case before == "" && after == "":
		return "-"
	case before == "" || before == after:
		return after
	case after == "":
		return before
	default:
		return before + " → " + after
	}
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func priceString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func init() {
	historyCmd.Flags().String("action", "", "only changes of this kind: agregado, modificado, eliminado")
	historyCmd.Flags().IntP("limit", "n", 0, "show at most this many entries")
	rootCmd.AddCommand(historyCmd)
}
