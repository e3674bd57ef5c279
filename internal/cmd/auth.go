package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/account"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/authz"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/tui"
	"github.com/producttrack/producttrack/internal/ux"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored session",
	Long: `Sign in to the ProductTrack backend and manage the stored session.

The session token is kept in the state file under the home directory and
reused by every command and by 'producttrack open'.

Subcommands:
  login     Sign in with email and password
  logout    Remove the stored session
  status    Show the current session and what it may do
  refresh   Re-read the stored token
  register  Create an account

Examples:
  producttrack auth login --email ana@example.com
  producttrack auth status --format json
  producttrack auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// sessionStatus is the structured form of 'auth status'.
type sessionStatus struct {
	State   string           `json:"state" yaml:"state"`
	Landing string           `json:"landing,omitempty" yaml:"landing,omitempty"`
	Session *session.Session `json:"session,omitempty" yaml:"session,omitempty"`
	Access  *authz.Context   `json:"access,omitempty" yaml:"access,omitempty"`
}

func statusOf(a *app) sessionStatus {
	st := sessionStatus{State: a.guard.State().String()}
	if s := a.store.Session(); s != nil {
		c := a.access()
		st.Session = s
		st.Access = &c
		if nav, err := a.guard.Navigate(guard.PathRoot); err == nil {
			st.Landing = nav.Decision.Target
		}
	}
	return st
}

func (st sessionStatus) table() *ux.Table {
	if st.Session == nil {
		return detail(st, "State", st.State)
	}
	s, c := st.Session, st.Access
	expires := ""
	if !s.ExpiresAt.IsZero() {
		expires = s.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	return detail(st,
		"State", st.State,
		"User", fmt.Sprintf("%s (%d)", s.DisplayName(), s.UserID),
		"Email", s.Email,
		"Account", string(s.AccountType),
		"Role", string(s.SystemRole),
		"Team role", string(s.TeamRole),
		"Company", s.CompanyName,
		"Expires", expires,
		"Landing", st.Landing,
		"Manage team", yesNo(c.ManageTeam),
		"Audit", yesNo(c.Audit),
		"NutriScan", yesNo(c.NutriScan),
		"Edit content", yesNo(c.EditContent),
	)
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long: `Sign in with email and password and store the session.

Missing values are asked for when stdin is a terminal. Use
--password-stdin to read the password from a pipe.

Examples:
  producttrack auth login --email ana@example.com
  echo "$PASSWORD" | producttrack auth login --email ana@example.com --password-stdin`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		if fromStdin {
			p, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			password = p
		}

		if email == "" || password == "" {
			if !tui.ShouldPrompt() {
				if email == "" {
					return missingFlag("email")
				}
				return missingFlag("password")
			}
			e, p, err := tui.PromptLogin(email)
			if err != nil {
				return err
			}
			email, password = e, p
		}

		s, err := account.SignIn(cmd.Context(), a.client, a.store, strings.TrimSpace(email), password)
		if err != nil {
			return err
		}
		a.logger.Info("signed in", "user_id", s.UserID, "account_type", string(s.AccountType))

		st := statusOf(a)
		if authz.ProfileSetupPending(s) {
			a.say("Signed in as %s. Your profile is not complete yet; run 'producttrack profile complete'.", s.DisplayName())
		} else {
			a.say("Signed in as %s.", s.DisplayName())
		}
		if a.structured() {
			return a.emit(st.table())
		}
		return nil
	}),
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if a.store.Session() == nil {
			a.say("Not logged in.")
			return nil
		}
		if err := a.store.Logout(); err != nil {
			return err
		}
		a.logger.Info("signed out")
		a.say("Logged out.")
		return nil
	}),
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Show who is signed in, the account's section and its capabilities.

Exits with code 5 when no session is stored.`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		st := statusOf(a)
		if err := a.emit(st.table()); err != nil {
			return err
		}
		if st.Session == nil {
			return pterrors.NewNotAuthenticatedError()
		}
		return nil
	}),
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-read the stored token",
	Long: `Decode the stored token again and rewrite the cached session fields.

The session is kept when the token cannot be decoded.`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if _, err := a.session(); err != nil {
			return err
		}
		before := a.store.Fingerprint()
		a.store.Refresh(cmd.Context())
		if a.store.Fingerprint() == before {
			a.say("Session unchanged.")
		} else {
			a.say("Session updated.")
		}
		return a.emit(statusOf(a).table())
	}),
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an individual or business account. Business accounts need the
company name and NIT. You must accept the terms of service and the privacy
policy with --accept-terms.

Examples:
  producttrack auth register --username ana --full-name "Ana Ruiz" \
    --email ana@example.com --password 'Secret#123' --accept-terms
  producttrack auth register --business --company "Acme" --nit 900123 ...`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		flags := cmd.Flags()
		username, _ := flags.GetString("username")
		fullName, _ := flags.GetString("full-name")
		email, _ := flags.GetString("email")
		password, _ := flags.GetString("password")
		phone, _ := flags.GetString("phone")
		address, _ := flags.GetString("address")
		business, _ := flags.GetBool("business")
		company, _ := flags.GetString("company")
		nit, _ := flags.GetString("nit")
		terms, _ := flags.GetBool("accept-terms")

		required := []struct{ name, value string }{
			{"username", username}, {"full-name", fullName}, {"email", email}, {"password", password},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				return missingFlag(r.name)
			}
		}
		if err := account.ValidatePassword(password); err != nil {
			return usageError("%v", err)
		}
		if business && (company == "" || nit == "") {
			return usageError("--company and --nit are required for business accounts")
		}
		if !terms {
			return usageError("you must accept the terms of service and privacy policy (--accept-terms)")
		}

		reg := api.Registration{
			Username:    strings.TrimSpace(username),
			Email:       strings.TrimSpace(email),
			Password:    password,
			FullName:    strings.TrimSpace(fullName),
			Phone:       phone,
			Address:     address,
			AccountType: string(session.AccountIndividual),
		}
		if business {
			reg.AccountType = string(session.AccountBusiness)
			reg.CompanyName = company
			reg.NIT = nit
		}
		if err := a.client.Register(cmd.Context(), reg); err != nil {
			return err
		}
		a.say("Account created. Sign in with 'producttrack auth login --email %s'.", reg.Email)
		return nil
	}),
}

var authRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reset a forgotten password",
	Long: `Without --code, email a reset code to --email. With --code, set the new
password given by --password.`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		email, _ := cmd.Flags().GetString("email")
		code, _ := cmd.Flags().GetString("code")
		password, _ := cmd.Flags().GetString("password")

		if code == "" {
			if email == "" {
				return missingFlag("email")
			}
			msg, err := a.client.RequestPasswordReset(cmd.Context(), email)
			if err != nil {
				return err
			}
			a.say("%s", orDefault(msg, "A reset code was sent to "+email+"."))
			return nil
		}

		if password == "" {
			return missingFlag("password")
		}
		if err := account.ValidatePassword(password); err != nil {
			return usageError("%v", err)
		}
		msg, err := a.client.ConfirmPasswordReset(cmd.Context(), code, password)
		if err != nil {
			return err
		}
		a.say("%s", orDefault(msg, "Password updated."))
		return nil
	}),
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password")
	authLoginCmd.Flags().Bool("password-stdin", false, "read the password from stdin")

	authRegisterCmd.Flags().String("username", "", "username")
	authRegisterCmd.Flags().String("full-name", "", "full name")
	authRegisterCmd.Flags().String("email", "", "email")
	authRegisterCmd.Flags().String("password", "", "password")
	authRegisterCmd.Flags().String("phone", "", "phone number")
	authRegisterCmd.Flags().String("address", "", "address")
	authRegisterCmd.Flags().Bool("business", false, "create a business account")
	authRegisterCmd.Flags().String("company", "", "company name (business accounts)")
	authRegisterCmd.Flags().String("nit", "", "company tax id (business accounts)")
	authRegisterCmd.Flags().Bool("accept-terms", false, "accept the terms of service and privacy policy")

	authRecoverCmd.Flags().String("email", "", "account email")
	authRecoverCmd.Flags().String("code", "", "reset code from the email")
	authRecoverCmd.Flags().String("password", "", "new password")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authRecoverCmd)
	rootCmd.AddCommand(authCmd)
}
