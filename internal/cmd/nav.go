package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/ads"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/nav"
	"github.com/producttrack/producttrack/internal/tui"
	"github.com/producttrack/producttrack/internal/ux"
)

var navCmd = &cobra.Command{
	Use:   "nav",
	Short: "List the sections your account can open",
	Long: `List the navigation links shown to the current session, with the key
that opens each one in 'producttrack open'.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		links := nav.Links(a.access())
		t := &ux.Table{
			Headers: []string{"Key", "Section", "Path"},
			Data:    links,
			Empty:   "No sections available. Run 'producttrack auth login' or finish your profile first.",
		}
		if links == nil {
			t.Data = []nav.Link{}
		}
		for _, l := range links {
			t.Rows = append(t.Rows, []string{l.Key, l.Label, l.Href})
		}
		return a.emit(t)
	}),
}

var guardCmd = &cobra.Command{
	Use:   "guard [path]",
	Short: "Show where a path leads for the current session",
	Long: `Run the route guard for path and print every hop until it renders.

Examples:
  producttrack guard /
  producttrack guard /auditoria/usuarios --format json
  producttrack guard --routes`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		routes, _ := cmd.Flags().GetBool("routes")
		if routes {
			return a.emit(routeTable())
		}
		if len(args) == 0 {
			return usageError("a path is required unless --routes is given")
		}

		n, err := a.guard.Navigate(args[0])
		if err != nil {
			return err
		}
		return a.emit(detail(n,
			"State", a.guard.State().String(),
			"Requested", guard.Clean(args[0]),
			"Action", n.Action,
			"Target", n.Decision.Target,
			"Reason", n.Decision.Reason,
			"Trail", strings.Join(n.Trail, " → "),
		))
	}),
}

type routeInfo struct {
	Path   string `json:"path" yaml:"path"`
	Title  string `json:"title" yaml:"title"`
	Public bool   `json:"public" yaml:"public"`
}

func routeTable() *ux.Table {
	var data []routeInfo
	t := &ux.Table{Headers: []string{"Path", "Title", "Public"}}
	for _, r := range guard.Routes() {
		data = append(data, routeInfo{Path: r.Path, Title: r.Title, Public: r.Public})
		t.Rows = append(t.Rows, []string{r.Path, r.Title, yesNo(r.Public)})
	}
	t.Data = data
	return t
}

var openCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open the full-screen interface",
	Long: `Open the terminal interface at path, or at your landing page.

Keys: the digits shown in the sidebar switch sections, n opens
notifications, ctrl+x logs out and q quits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		start := guard.PathRoot
		if len(args) == 1 {
			start = args[0]
		}
		noAds, _ := cmd.Flags().GetBool("no-ads")

		svc := tui.Services{
			Store:  a.store,
			API:    a.client,
			KV:     a.kv,
			Logger: a.logger,
		}
		if !noAds {
			svc.Ads = ads.NewCounter(a.kv, time.Now)
		}
		a.logger.Info("opening interface", "path", guard.Clean(start))
		return tui.Run(cmd.Context(), svc, start)
	}),
}

func init() {
	guardCmd.Flags().Bool("routes", false, "list every known route instead")
	openCmd.Flags().Bool("no-ads", false, "do not show banners")
	_ = openCmd.Flags().MarkHidden("no-ads")

	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(guardCmd)
	rootCmd.AddCommand(openCmd)
}
