// Package authz derives capabilities from a session.
//
// Every function here is pure and treats a nil session as anonymous. Views,
// the route guard and the navigation surface must ask these predicates
// rather than inspecting session fields themselves.
package authz

import "github.com/producttrack/producttrack/internal/session"

// Section base paths.
const (
	IndividualBase = "/app/individual"
	BusinessBase   = "/app/empresarial"
	DeveloperBase  = "/app/desarrollador"
)

// IsAuthenticated is true iff a session is present.
func IsAuthenticated(s *session.Session) bool {
	return s != nil
}

func IsIndividual(s *session.Session) bool {
	return s != nil && s.AccountType == session.AccountIndividual
}

func IsBusiness(s *session.Session) bool {
	return s != nil && s.AccountType == session.AccountBusiness
}

func IsTeamMember(s *session.Session) bool {
	return s != nil && s.SystemRole == session.RoleTeamMember
}

func IsAdmin(s *session.Session) bool {
	return s != nil && s.SystemRole == session.RoleAdmin
}

func IsDeveloper(s *session.Session) bool {
	return s != nil && s.SystemRole == session.RoleDeveloper
}

func IsAdminOrDeveloper(s *session.Session) bool {
	return IsAdmin(s) || IsDeveloper(s)
}

// CanManageTeam is true for the business owner only, never for a delegated
// team account inside the business.
func CanManageTeam(s *session.Session) bool {
	return IsBusiness(s) && !IsTeamMember(s)
}

// CanAudit grants the audit screens to admins and developers regardless of
// account type.
func CanAudit(s *session.Session) bool {
	return IsAdminOrDeveloper(s)
}

// CanAdministerAudit gates destructive audit actions: deactivating users and
// deleting team members or nutrition records.
func CanAdministerAudit(s *session.Session) bool {
	return IsAdmin(s)
}

// CanEditContent is true iff the session's team role is EDITOR.
func CanEditContent(s *session.Session) bool {
	return s != nil && s.TeamRole == session.TeamRoleEditor
}

// CanComment is true for editors and commenters, and for individual
// accounts annotating their own items.
func CanComment(s *session.Session) bool {
	if s == nil {
		return false
	}
	switch s.TeamRole {
	case session.TeamRoleEditor, session.TeamRoleCommenter:
		return true
	}
	return IsIndividual(s)
}

// CanModifyInventory gates product create, update and delete. Individual
// accounts own their inventory; in a business inventory only editors write.
func CanModifyInventory(s *session.Session) bool {
	return IsIndividual(s) || CanEditContent(s)
}

// CanUseNutriScan is limited to individual accounts.
func CanUseNutriScan(s *session.Session) bool {
	return IsIndividual(s)
}

// CanSeeReports is limited to developers.
func CanSeeReports(s *session.Session) bool {
	return IsDeveloper(s)
}

// CanViewCompanyInfo is true for business accounts and team members.
func CanViewCompanyInfo(s *session.Session) bool {
	return IsBusiness(s) || IsTeamMember(s)
}

// ProfileSetupPending is true when a team member still has to complete the
// profile. The backend's perfilCompleto flag is inverted: true means pending.
func ProfileSetupPending(s *session.Session) bool {
	return IsTeamMember(s) && s.ProfileComplete
}

// BasePathFor maps a session to its navigation namespace. The developer
// role wins over the account type.
func BasePathFor(s *session.Session) string {
	switch {
	case IsDeveloper(s):
		return DeveloperBase
	case IsBusiness(s):
		return BusinessBase
	default:
		return IndividualBase
	}
}

// LandingPath is the default destination for an authenticated session.
func LandingPath(s *session.Session) string {
	return BasePathFor(s) + "/home"
}

// InSection reports whether base is the session's own section. Anonymous
// sessions belong to no section.
func InSection(s *session.Session, base string) bool {
	return s != nil && BasePathFor(s) == base
}
