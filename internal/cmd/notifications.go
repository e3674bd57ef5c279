package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/authz"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/notify"
	"github.com/producttrack/producttrack/internal/tui"
	"github.com/producttrack/producttrack/internal/ux"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Read notifications and manage which ones you receive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notifications, newest first",
	Long: `List the notifications your preferences allow. Individual accounts only
see product notifications about their own products.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixHome); err != nil {
			return err
		}
		unreadOnly, _ := cmd.Flags().GetBool("unread")

		s, _ := a.session()
		items, err := a.client.Inbox(cmd.Context(), s.UserID, a.access())
		if err != nil {
			return err
		}
		if unreadOnly {
			kept := items[:0]
			for _, n := range items {
				if !n.Read {
					kept = append(kept, n)
				}
			}
			items = kept
		}

		t := &ux.Table{
			Headers: []string{"ID", "", "Kind", "Title", "Message", "Sent"},
			Data:    items,
			Empty:   "No notifications.",
		}
		if items == nil {
			t.Data = []notify.Notification{}
		}
		for _, n := range items {
			mark := "•"
			if n.Read {
				mark = ""
			}
			kind := string(n.Type)
			if k, ok := notify.KindOf(n.Type); ok {
				kind = k.Label()
			}
			sent := n.SentAt
			if ts, ok := n.Time(); ok {
				sent = ts.Format("2006-01-02 15:04")
			}
			t.Rows = append(t.Rows, []string{idString(n.ID), mark, kind, n.Title, n.Message, sent})
		}
		if err := a.emit(t); err != nil {
			return err
		}
		if unread := notify.UnreadCount(items); unread > 0 {
			a.say("%d unread.", unread)
		}
		return nil
	}),
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>...",
	Short: "Mark notifications as read",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixHome); err != nil {
			return err
		}
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			if err := a.client.MarkRead(cmd.Context(), id); err != nil {
				return err
			}
		}
		a.say("Marked %d as read.", len(args))
		return nil
	}),
}

func prefsTable(p notify.Preferences) *ux.Table {
	t := &ux.Table{Headers: []string{"Kind", "Description", "Enabled"}, Data: p}
	for _, k := range notify.Kinds {
		t.Rows = append(t.Rows, []string{string(k), k.Label(), yesNo(p.Enabled(k))})
	}
	return t
}

// savePrefs stores prefs on the backend and in the local cache the client
// consults before emitting notifications.
func savePrefs(cmd *cobra.Command, a *app, userID int64, prefs notify.Preferences) error {
	if err := notify.SavePreferences(a.kv, prefs); err != nil {
		a.logger.WithError(err).Warn("failed to cache notification preferences")
	}
	return a.client.UpdatePreferences(cmd.Context(), userID, prefs)
}

var notificationsPrefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or edit your notification preferences",
	Long: `Show which kinds of notification you receive. With --edit, choose them
interactively.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixSettings); err != nil {
			return err
		}
		edit, _ := cmd.Flags().GetBool("edit")

		s, _ := a.session()
		prefs, err := a.client.Preferences(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		if err := notify.SavePreferences(a.kv, prefs); err != nil {
			a.logger.WithError(err).Warn("failed to cache notification preferences")
		}

		if edit {
			if !tui.ShouldPrompt() {
				return usageError("--edit needs an interactive terminal; use 'notifications set <kind> on|off'")
			}
			var options, selected []string
			for _, k := range notify.Kinds {
				options = append(options, string(k))
				if prefs.Enabled(k) {
					selected = append(selected, string(k))
				}
			}
			chosen, err := tui.PromptForMultiSelect("Notifications to receive", options, selected)
			if err != nil {
				return err
			}
			for _, k := range notify.Kinds {
				prefs = prefs.With(k, false)
			}
			for _, c := range chosen {
				if k, ok := notify.ParseKind(c); ok {
					prefs = prefs.With(k, true)
				}
			}
			if err := savePrefs(cmd, a, s.UserID, prefs); err != nil {
				return err
			}
			a.say("Preferences updated.")
		}
		return a.emit(prefsTable(prefs))
	}),
}

var notificationsSetCmd = &cobra.Command{
	Use:   "set <kind> on|off",
	Short: "Turn one kind of notification on or off",
	Long: `Turn one kind of notification on or off.

Kinds: stockBajo, productoVencido, comentarios, reposicion, actualizacion.

Examples:
  producttrack notifications set stockBajo off`,
	Args: cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.requireSection(guard.SuffixSettings); err != nil {
			return err
		}
		k, ok := notify.ParseKind(args[0])
		if !ok {
			var kinds []string
			for _, k := range notify.Kinds {
				kinds = append(kinds, string(k))
			}
			return usageError("unknown notification kind %q (use one of: %s)", args[0], strings.Join(kinds, ", "))
		}
		var on bool
		switch strings.ToLower(args[1]) {
		case "on", "true", "yes":
			on = true
		case "off", "false", "no":
		default:
			return usageError("expected on or off, got %q", args[1])
		}

		s, _ := a.session()
		prefs, err := a.client.Preferences(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}
		prefs = prefs.With(k, on)
		if err := savePrefs(cmd, a, s.UserID, prefs); err != nil {
			return err
		}
		state := "off"
		if on {
			state = "on"
		}
		a.say("%s notifications turned %s.", k.Label(), state)
		return a.emit(prefsTable(prefs))
	}),
}

var notificationsBroadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send an app-update notification to every user",
	Long: `Send an app-update notification to every user. Developers only.

Examples:
  producttrack notifications broadcast --title "Version 2.1" --message "Reports now export to CSV"`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(authz.DeveloperBase + guard.SuffixReports); err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		message, _ := cmd.Flags().GetString("message")
		title, message = strings.TrimSpace(title), strings.TrimSpace(message)
		if title == "" {
			return missingFlag("title")
		}
		if len([]rune(message)) < 10 {
			return usageError("--message must be at least 10 characters")
		}
		if !notify.CanNotify(a.kv, notify.KindAppUpdate) {
			return pterrors.New(pterrors.ErrCodeNotAuthorized, "app-update notifications are turned off in your preferences").
				WithSuggestion("Run 'producttrack notifications set actualizacion on' first")
		}
		if err := a.client.SendAppUpdate(cmd.Context(), title, message); err != nil {
			return err
		}
		a.logger.Info("app update sent", "title", title)
		a.say("Notification sent.")
		return nil
	}),
}

func init() {
	notificationsListCmd.Flags().Bool("unread", false, "only unread notifications")
	notificationsPrefsCmd.Flags().Bool("edit", false, "choose the kinds interactively")
	notificationsBroadcastCmd.Flags().String("title", "", "notification title")
	notificationsBroadcastCmd.Flags().String("message", "", "notification text (at least 10 characters)")

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsPrefsCmd)
	notificationsCmd.AddCommand(notificationsSetCmd)
	notificationsCmd.AddCommand(notificationsBroadcastCmd)
	rootCmd.AddCommand(notificationsCmd)
}
