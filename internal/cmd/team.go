package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/account"
	"github.com/producttrack/producttrack/internal/api"
	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/session"
	"github.com/producttrack/producttrack/internal/tui"
	"github.com/producttrack/producttrack/internal/ux"
)

var teamRoles = []string{
	string(session.TeamRoleReader),
	string(session.TeamRoleCommenter),
	string(session.TeamRoleEditor),
}

func parseTeamRole(s string) (string, error) {
	role := strings.ToUpper(strings.TrimSpace(s))
	if !slices.Contains(teamRoles, role) {
		return "", usageError("unknown team role %q (use one of: %s)", s, strings.Join(teamRoles, ", "))
	}
	return role, nil
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage your company's team",
	Long: `Manage the members of your company. Business account owners only.

Roles: LECTOR can read the inventory, COMENTARISTA can also comment and
EDITOR can also change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func requireTeam(a *app) error {
	return a.require(authz.BusinessBase + guard.SuffixTeam)
}

func userTable(users []api.User, empty string) *ux.Table {
	t := &ux.Table{
		Headers: []string{"ID", "Name", "Username", "Email", "Account", "Role", "Team role", "Status"},
		Data:    users,
		Empty:   empty,
	}
	if users == nil {
		t.Data = []api.User{}
	}
	for _, u := range users {
		t.Rows = append(t.Rows, []string{
			idString(u.ID),
			u.FullName,
			u.Username,
			u.Email,
			orDash(u.AccountType),
			orDash(u.Role),
			orDash(u.TeamRole),
			orDash(u.Status),
		})
	}
	return t
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List team members",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := requireTeam(a); err != nil {
			return err
		}
		var f api.TeamFilter
		f.FullName, _ = cmd.Flags().GetString("name")
		f.Email, _ = cmd.Flags().GetString("email")
		f.TeamRole, _ = cmd.Flags().GetString("role")
		f.Status, _ = cmd.Flags().GetString("status")

		var members []api.User
		var err error
		if f == (api.TeamFilter{}) {
			members, err = a.client.Team(cmd.Context())
		} else {
			members, err = a.client.FilterTeam(cmd.Context(), f)
		}
		if err != nil {
			return err
		}
		return a.emit(userTable(members, "No team members yet. Add one with 'producttrack team add'."))
	}),
}

var teamAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a team member",
	Long: `Add a member to your company. The member signs in with the temporary
password and must complete their profile before using the app.

Examples:
  producttrack team add --full-name "Luis Gómez" --username luis \
    --email luis@acme.test --password 'Temp#2024' --role EDITOR`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := requireTeam(a); err != nil {
			return err
		}
		flags := cmd.Flags()
		var m api.NewTeamMember
		m.FullName, _ = flags.GetString("full-name")
		m.Username, _ = flags.GetString("username")
		m.Email, _ = flags.GetString("email")
		m.Password, _ = flags.GetString("password")
		m.Phone, _ = flags.GetString("phone")
		m.Address, _ = flags.GetString("address")
		role, _ := flags.GetString("role")

		required := []struct{ name, value string }{
			{"full-name", m.FullName}, {"username", m.Username}, {"email", m.Email}, {"password", m.Password},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				return missingFlag(r.name)
			}
		}
		if err := account.ValidatePassword(m.Password); err != nil {
			return usageError("temporary %v", err)
		}

		if role == "" {
			if !tui.ShouldPrompt() {
				return missingFlag("role")
			}
			var err error
			if role, err = tui.PromptForSelect("Team role", teamRoles); err != nil {
				return err
			}
		}
		var err error
		if m.TeamRole, err = parseTeamRole(role); err != nil {
			return err
		}

		s, _ := a.session()
		m.CompanyID = s.CompanyID
		created, err := a.client.AddTeamMember(cmd.Context(), m)
		if err != nil {
			return err
		}
		a.logger.Info("team member added", "member_id", created.ID, "role", m.TeamRole)
		a.say("Added %s as %s. They must complete their profile on first sign-in.", created.FullName, m.TeamRole)
		if a.structured() {
			return a.emit(userTable([]api.User{*created}, ""))
		}
		return nil
	}),
}

var teamUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a team member",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := requireTeam(a); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var u api.TeamMemberUpdate
		u.FullName, _ = flags.GetString("full-name")
		u.Email, _ = flags.GetString("email")
		u.Phone, _ = flags.GetString("phone")
		u.Address, _ = flags.GetString("address")
		u.Status, _ = flags.GetString("status")
		if role, _ := flags.GetString("role"); role != "" {
			if u.TeamRole, err = parseTeamRole(role); err != nil {
				return err
			}
		}
		if u == (api.TeamMemberUpdate{}) {
			return usageError("nothing to update; pass at least one field flag")
		}

		if err := a.client.UpdateTeamMember(cmd.Context(), id, u); err != nil {
			return err
		}
		a.say("Member %d updated.", id)
		return nil
	}),
}

var teamRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Deactivate a team member",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := requireTeam(a); err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if ok, err := confirm(cmd, a, fmt.Sprintf("Deactivate member %d?", id)); err != nil || !ok {
			return err
		}
		if err := a.client.DeactivateTeamMember(cmd.Context(), id); err != nil {
			return err
		}
		a.logger.Info("team member deactivated", "member_id", id)
		a.say("Member %d deactivated.", id)
		return nil
	}),
}

// confirm asks before a destructive change unless --yes was given. A
// declined confirmation returns false and no error.
func confirm(cmd *cobra.Command, a *app, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	if !tui.ShouldPrompt() {
		return false, missingFlag("yes")
	}
	ok, err := tui.PromptForConfirmation(question, false)
	if err != nil {
		return false, err
	}
	if !ok {
		a.say("Cancelled.")
	}
	return ok, nil
}

func init() {
	teamListCmd.Flags().String("name", "", "filter by full name")
	teamListCmd.Flags().String("email", "", "filter by email")
	teamListCmd.Flags().String("role", "", "filter by team role")
	teamListCmd.Flags().String("status", "", "filter by status: activo, inactivo")

	teamAddCmd.Flags().String("full-name", "", "full name")
	teamAddCmd.Flags().String("username", "", "username")
	teamAddCmd.Flags().String("email", "", "email")
	teamAddCmd.Flags().String("password", "", "temporary password")
	teamAddCmd.Flags().String("phone", "", "phone number")
	teamAddCmd.Flags().String("address", "", "address")
	teamAddCmd.Flags().String("role", "", "team role: LECTOR, COMENTARISTA, EDITOR")

	teamUpdateCmd.Flags().String("full-name", "", "full name")
	teamUpdateCmd.Flags().String("email", "", "email")
	teamUpdateCmd.Flags().String("phone", "", "phone number")
	teamUpdateCmd.Flags().String("address", "", "address")
	teamUpdateCmd.Flags().String("status", "", "status: activo, inactivo")
	teamUpdateCmd.Flags().String("role", "", "team role: LECTOR, COMENTARISTA, EDITOR")

	teamRemoveCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	teamCmd.AddCommand(teamListCmd)
	teamCmd.AddCommand(teamAddCmd)
	teamCmd.AddCommand(teamUpdateCmd)
	teamCmd.AddCommand(teamRemoveCmd)
	rootCmd.AddCommand(teamCmd)
}
