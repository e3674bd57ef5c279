package authz

import "github.com/producttrack/producttrack/internal/session"

// Context is the set of capabilities of one session, computed at once. The
// route guard and the navigation surface read only this.
type Context struct {
	Authenticated       bool   `json:"authenticated" yaml:"authenticated"`
	Individual          bool   `json:"individual" yaml:"individual"`
	Business            bool   `json:"business" yaml:"business"`
	TeamMember          bool   `json:"team_member" yaml:"team_member"`
	Admin               bool   `json:"admin" yaml:"admin"`
	Developer           bool   `json:"developer" yaml:"developer"`
	ManageTeam          bool   `json:"manage_team" yaml:"manage_team"`
	Audit               bool   `json:"audit" yaml:"audit"`
	AdministerAudit     bool   `json:"administer_audit" yaml:"administer_audit"`
	EditContent         bool   `json:"edit_content" yaml:"edit_content"`
	Comment             bool   `json:"comment" yaml:"comment"`
	ModifyInventory     bool   `json:"modify_inventory" yaml:"modify_inventory"`
	NutriScan           bool   `json:"nutriscan" yaml:"nutriscan"`
	Reports             bool   `json:"reports" yaml:"reports"`
	CompanyInfo         bool   `json:"company_info" yaml:"company_info"`
	ProfileSetupPending bool   `json:"profile_setup_pending" yaml:"profile_setup_pending"`
	BasePath            string `json:"base_path" yaml:"base_path"`
}

// Evaluate computes the Context for s.
func Evaluate(s *session.Session) Context {
	return Context{
		Authenticated:       IsAuthenticated(s),
		Individual:          IsIndividual(s),
		Business:            IsBusiness(s),
		TeamMember:          IsTeamMember(s),
		Admin:               IsAdmin(s),
		Developer:           IsDeveloper(s),
		ManageTeam:          CanManageTeam(s),
		Audit:               CanAudit(s),
		AdministerAudit:     CanAdministerAudit(s),
		EditContent:         CanEditContent(s),
		Comment:             CanComment(s),
		ModifyInventory:     CanModifyInventory(s),
		NutriScan:           CanUseNutriScan(s),
		Reports:             CanSeeReports(s),
		CompanyInfo:         CanViewCompanyInfo(s),
		ProfileSetupPending: ProfileSetupPending(s),
		BasePath:            BasePathFor(s),
	}
}

// Landing is the default authenticated destination.
func (c Context) Landing() string {
	return c.BasePath + "/home"
}

// InSection reports whether base is this context's own section.
func (c Context) InSection(base string) bool {
	return c.Authenticated && c.BasePath == base
}
