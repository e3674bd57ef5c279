package cmd

import (
	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/account"
	"github.com/producttrack/producttrack/internal/api"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/tui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or complete your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your account details",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathProfile); err != nil {
			return err
		}
		s, _ := a.session()
		u, err := a.client.GetUser(cmd.Context(), s.UserID)
		if err != nil {
			return err
		}

		company := u.CompanyName
		if company == "" && s.CompanyID != nil && a.access().CompanyInfo {
			if c, err := a.client.GetCompany(cmd.Context(), *s.CompanyID); err == nil {
				company = c.CompanyName
			} else {
				a.logger.WithError(err).Warn("failed to load company")
			}
		}

		return a.emit(detail(u,
			"ID", idString(u.ID),
			"Username", u.Username,
			"Full name", u.FullName,
			"Email", u.Email,
			"Phone", u.Phone,
			"Address", u.Address,
			"Account", u.AccountType,
			"Role", u.Role,
			"Team role", u.TeamRole,
			"Company", company,
			"NIT", u.NIT,
			"Status", u.Status,
		))
	}),
}

var profileCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish a team member's first sign-in",
	Long: `Team members added by a business owner must set a username and a new
password on first sign-in before anything else is available. Missing values
are asked for when stdin is a terminal.

The new password needs at least 8 characters with an upper case letter, a
lower case letter, a digit and a symbol.`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		s, err := a.session()
		if err != nil {
			return err
		}
		if a.guard.State() != guard.AuthenticatedIncomplete {
			return pterrors.New(pterrors.ErrCodeNotAuthorized, "your profile is already complete")
		}

		username, _ := cmd.Flags().GetString("username")
		phone, _ := cmd.Flags().GetString("phone")
		address, _ := cmd.Flags().GetString("address")
		password, _ := cmd.Flags().GetString("password")

		d := account.ProfileDetails{Username: username, Phone: phone, Address: address, Password: password}
		if d.Password == "" {
			if !tui.ShouldPrompt() {
				return missingFlag("password")
			}
			current := username
			if current == "" {
				current = s.Username
			}
			if d, err = tui.PromptCompleteProfile(current); err != nil {
				return err
			}
		}
		if d.Username == "" {
			d.Username = s.Username
		}

		msg, err := account.CompleteProfile(cmd.Context(), a.client, a.store, d)
		if err != nil {
			return err
		}
		a.logger.Info("profile completed", "user_id", s.UserID)
		a.say("%s", orDefault(msg, "Profile completed."))
		a.say("Your landing page is %s.", a.access().Landing())
		return nil
	}),
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathProfile); err != nil {
			return err
		}
		s, _ := a.session()

		current, _ := cmd.Flags().GetString("current")
		next, _ := cmd.Flags().GetString("new")
		if current == "" || next == "" {
			if !tui.ShouldPrompt() {
				if current == "" {
					return missingFlag("current")
				}
				return missingFlag("new")
			}
			var err error
			if current, err = tui.PromptForString(tui.Prompt{Message: "Current password", Required: true, Secret: true}); err != nil {
				return err
			}
			if next, err = tui.PromptForString(tui.Prompt{Message: "New password", Required: true, Secret: true, Validate: account.ValidatePassword}); err != nil {
				return err
			}
		}
		if err := account.ValidatePassword(next); err != nil {
			return usageError("%v", err)
		}

		msg, err := a.client.ChangePassword(cmd.Context(), s.UserID, current, next)
		if err != nil {
			return err
		}
		a.say("%s", orDefault(msg, "Password changed."))
		return nil
	}),
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your account details",
	Long: `Update the given fields of your account. Company name and NIT apply to
business account owners only.`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathProfile); err != nil {
			return err
		}
		s, _ := a.session()
		c := a.access()

		flags := cmd.Flags()
		var u api.UserUpdate
		u.Username, _ = flags.GetString("username")
		u.FullName, _ = flags.GetString("full-name")
		u.Email, _ = flags.GetString("email")
		u.Phone, _ = flags.GetString("phone")
		u.Address, _ = flags.GetString("address")
		u.CompanyName, _ = flags.GetString("company")
		u.NIT, _ = flags.GetString("nit")

		if (u.CompanyName != "" || u.NIT != "") && !(c.Business && !c.TeamMember) {
			return pterrors.NewNotAuthorizedError("Changing company details", "")
		}
		if u == (api.UserUpdate{}) {
			return usageError("nothing to update; pass at least one field flag")
		}

		msg, err := a.client.UpdateUser(cmd.Context(), s.UserID, u)
		if err != nil {
			return err
		}
		if u.Username != "" && u.Username != s.Username {
			next := s.Clone()
			next.Username = u.Username
			if err := session.RecomputeCache(a.kv, next); err != nil {
				a.logger.WithError(err).Warn("failed to rewrite cached session fields")
			}
			a.store.SetSession(next)
		}
		a.say("%s", orDefault(msg, "Profile updated."))
		return nil
	}),
}

func init() {
	profileCompleteCmd.Flags().String("username", "", "username (defaults to the current one)")
	profileCompleteCmd.Flags().String("phone", "", "phone number")
	profileCompleteCmd.Flags().String("address", "", "address")
	profileCompleteCmd.Flags().String("password", "", "new password")

	profilePasswordCmd.Flags().String("current", "", "current password")
	profilePasswordCmd.Flags().String("new", "", "new password")

	profileUpdateCmd.Flags().String("username", "", "username")
	profileUpdateCmd.Flags().String("full-name", "", "full name")
	profileUpdateCmd.Flags().String("email", "", "email")
	profileUpdateCmd.Flags().String("phone", "", "phone number")
	profileUpdateCmd.Flags().String("address", "", "address")
	profileUpdateCmd.Flags().String("company", "", "company name")
	profileUpdateCmd.Flags().String("nit", "", "company tax id")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCompleteCmd)
	profileCmd.AddCommand(profilePasswordCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	rootCmd.AddCommand(profileCmd)
}
