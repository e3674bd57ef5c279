package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/producttrack/producttrack/internal/api"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/guard"
	"github.com/producttrack/producttrack/internal/ux"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Review users, teams and NutriScan analyses",
	Long: `Audit views for administrators and developers. Both may list; only
administrators may deactivate, reactivate or delete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func requireAdmin(a *app, what string) error {
	if !a.access().AdministerAudit {
		return pterrors.NewNotAuthorizedError(what, "")
	}
	return nil
}

// statusChange reads --deactivate and --reactivate. At most one may be set.
func statusChange(cmd *cobra.Command) (deactivate, reactivate int64, err error) {
	d, _ := cmd.Flags().GetInt64("deactivate")
	r, _ := cmd.Flags().GetInt64("reactivate")
	if d != 0 && r != 0 {
		return 0, 0, usageError("--deactivate and --reactivate cannot be combined")
	}
	return d, r, nil
}

var auditUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users, or change one's status",
	Long: `List every user, filtered by the given flags. With --deactivate or
--reactivate, change that user's status instead. You cannot deactivate your
own account.

Examples:
  producttrack audit users --status inactivo
  producttrack audit users --type EMPRESARIAL --format json
  producttrack audit users --deactivate 42`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathAuditUsers); err != nil {
			return err
		}
		deactivate, reactivate, err := statusChange(cmd)
		if err != nil {
			return err
		}

		switch {
		case deactivate != 0:
			if err := requireAdmin(a, "Deactivating users"); err != nil {
				return err
			}
			if s, _ := a.session(); s.UserID == deactivate {
				return usageError("you cannot deactivate your own account")
			}
			if err := a.client.DeactivateUser(cmd.Context(), deactivate); err != nil {
				return err
			}
			a.logger.Info("user deactivated", "target_id", deactivate)
			a.say("User %d deactivated.", deactivate)
			return nil
		case reactivate != 0:
			if err := requireAdmin(a, "Reactivating users"); err != nil {
				return err
			}
			if err := a.client.ReactivateUser(cmd.Context(), reactivate); err != nil {
				return err
			}
			a.logger.Info("user reactivated", "target_id", reactivate)
			a.say("User %d reactivated.", reactivate)
			return nil
		}

		var f api.UserFilter
		f.FullName, _ = cmd.Flags().GetString("name")
		f.Email, _ = cmd.Flags().GetString("email")
		f.AccountType, _ = cmd.Flags().GetString("type")
		f.Role, _ = cmd.Flags().GetString("role")
		f.Status, _ = cmd.Flags().GetString("status")
		users, err := a.client.ListUsers(cmd.Context(), f)
		if err != nil {
			return err
		}
		return a.emit(userTable(users, "No users match."))
	}),
}

var auditTeamCmd = &cobra.Command{
	Use:   "team",
	Short: "List team members, or change one's status",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathAuditTeam); err != nil {
			return err
		}
		deactivate, reactivate, err := statusChange(cmd)
		if err != nil {
			return err
		}

		switch {
		case deactivate != 0:
			if err := requireAdmin(a, "Deactivating team members"); err != nil {
				return err
			}
			if err := a.client.DeactivateTeamMember(cmd.Context(), deactivate); err != nil {
				return err
			}
			a.say("Member %d deactivated.", deactivate)
			return nil
		case reactivate != 0:
			if err := requireAdmin(a, "Reactivating team members"); err != nil {
				return err
			}
			if err := a.client.ReactivateUser(cmd.Context(), reactivate); err != nil {
				return err
			}
			a.say("Member %d reactivated.", reactivate)
			return nil
		}

		var f api.TeamFilter
		f.FullName, _ = cmd.Flags().GetString("name")
		f.TeamRole, _ = cmd.Flags().GetString("role")
		f.Status, _ = cmd.Flags().GetString("status")
		var members []api.User
		if f == (api.TeamFilter{}) {
			members, err = a.client.Team(cmd.Context())
		} else {
			members, err = a.client.FilterTeam(cmd.Context(), f)
		}
		if err != nil {
			return err
		}
		return a.emit(userTable(members, "No team members match."))
	}),
}

func scanTable(records []api.ScanRecord) *ux.Table {
	t := &ux.Table{
		Headers: []string{"ID", "Query", "User", "Food", "Test", "Type", "Analyzed"},
		Data:    records,
		Empty:   "No analyses recorded.",
	}
	if records == nil {
		t.Data = []api.ScanRecord{}
	}
	for _, r := range records {
		user := "-"
		if r.User != nil {
			user = r.User.FullName
		}
		t.Rows = append(t.Rows, []string{
			idString(r.ID),
			orDash(r.Query),
			user,
			yesNo(r.IsFood),
			yesNo(r.IsTest),
			orDash(r.AnalysisType),
			orDash(r.AnalyzedAt),
		})
	}
	return t
}

var auditNutriScanCmd = &cobra.Command{
	Use:   "nutriscan",
	Short: "List NutriScan analyses, or flag or delete one",
	Long: `List every stored NutriScan analysis. Administrators may toggle the
test flag of one with --toggle-test or delete one with --delete.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.require(guard.PathAuditNutriScan); err != nil {
			return err
		}
		toggle, _ := cmd.Flags().GetInt64("toggle-test")
		del, _ := cmd.Flags().GetInt64("delete")
		if toggle != 0 && del != 0 {
			return usageError("--toggle-test and --delete cannot be combined")
		}

		if del != 0 {
			if err := requireAdmin(a, "Deleting analyses"); err != nil {
				return err
			}
			if ok, err := confirm(cmd, a, fmt.Sprintf("Delete analysis %d?", del)); err != nil || !ok {
				return err
			}
			if err := a.client.DeleteScanRecord(cmd.Context(), del); err != nil {
				return err
			}
			a.say("Analysis %d deleted.", del)
			return nil
		}

		records, err := a.client.ScanRecords(cmd.Context())
		if err != nil {
			return err
		}
		if toggle == 0 {
			return a.emit(scanTable(records))
		}

		if err := requireAdmin(a, "Editing analyses"); err != nil {
			return err
		}
		for _, r := range records {
			if r.ID != toggle {
				continue
			}
			r.IsTest = !r.IsTest
			if err := a.client.UpdateScanRecord(cmd.Context(), r); err != nil {
				return err
			}
			a.say("Analysis %d test flag: %s.", r.ID, yesNo(r.IsTest))
			return nil
		}
		return pterrors.New(pterrors.ErrCodeAPIResponse, fmt.Sprintf("analysis %d not found", toggle))
	}),
}

func init() {
	auditUsersCmd.Flags().String("name", "", "filter by full name")
	auditUsersCmd.Flags().String("email", "", "filter by email")
	auditUsersCmd.Flags().String("type", "", "filter by account type: INDIVIDUAL, EMPRESARIAL")
	auditUsersCmd.Flags().String("role", "", "filter by role")
	auditUsersCmd.Flags().String("status", "", "filter by status: activo, inactivo")
	auditUsersCmd.Flags().Int64("deactivate", 0, "deactivate the user with this id")
	auditUsersCmd.Flags().Int64("reactivate", 0, "reactivate the user with this id")

	auditTeamCmd.Flags().String("name", "", "filter by full name")
	auditTeamCmd.Flags().String("role", "", "filter by team role")
	auditTeamCmd.Flags().String("status", "", "filter by status: activo, inactivo")
	auditTeamCmd.Flags().Int64("deactivate", 0, "deactivate the member with this id")
	auditTeamCmd.Flags().Int64("reactivate", 0, "reactivate the member with this id")

	auditNutriScanCmd.Flags().Int64("toggle-test", 0, "flip the test flag of the analysis with this id")
	auditNutriScanCmd.Flags().Int64("delete", 0, "delete the analysis with this id")
	auditNutriScanCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	auditCmd.AddCommand(auditUsersCmd)
	auditCmd.AddCommand(auditTeamCmd)
	auditCmd.AddCommand(auditNutriScanCmd)
	rootCmd.AddCommand(auditCmd)
}
