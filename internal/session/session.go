// Package session owns the decoded identity of the logged-in user.
//
// A Session is built only by decoding a backend-issued token. The Store
// holds the single in-process instance, persists the token through a
// keystore, and notifies subscribers whenever the session changes.
package session

import "time"

// AccountType is the kind of account the user registered.
type AccountType string

const (
	AccountIndividual AccountType = "INDIVIDUAL"
	AccountBusiness   AccountType = "EMPRESARIAL"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountIndividual || t == AccountBusiness
}

// SystemRole is the backend role. It is an open set: values the client does
// not know are kept verbatim and simply grant nothing.
type SystemRole string

const (
	RoleUser       SystemRole = "USUARIO"
	RoleTeamMember SystemRole = "EQUIPO"
	RoleAdmin      SystemRole = "ADMIN"
	RoleDeveloper  SystemRole = "DESARROLLADOR"
)

// TeamRole scopes what a team member may do inside the company inventory.
type TeamRole string

const (
	TeamRoleNone      TeamRole = ""
	TeamRoleReader    TeamRole = "LECTOR"
	TeamRoleCommenter TeamRole = "COMENTARISTA"
	TeamRoleEditor    TeamRole = "EDITOR"
)

// Session is the authenticated principal. Treat values returned by the
// Store as read-only snapshots.
type Session struct {
	UserID      int64       `json:"user_id" yaml:"user_id"`
	Username    string      `json:"username" yaml:"username"`
	Email       string      `json:"email" yaml:"email"`
	AccountType AccountType `json:"account_type" yaml:"account_type"`
	SystemRole  SystemRole  `json:"system_role" yaml:"system_role"`
	TeamRole    TeamRole    `json:"team_role,omitempty" yaml:"team_role,omitempty"`
	CompanyID   *int64      `json:"company_id,omitempty" yaml:"company_id,omitempty"`

	// ProfileComplete mirrors the backend's perfilCompleto claim, whose sense
	// is inverted: true means profile setup is still pending.
	ProfileComplete bool `json:"profile_complete" yaml:"profile_complete"`

	CompanyName string    `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`

	// token is the raw token the session was decoded from, if any.
	token string
}

// Clone returns a deep copy of s. Clone of nil is nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.CompanyID != nil {
		id := *s.CompanyID
		c.CompanyID = &id
	}
	return &c
}

// Equal reports whether a and b describe the same principal and claims.
func Equal(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	if (a.CompanyID == nil) != (b.CompanyID == nil) {
		return false
	}
	if a.CompanyID != nil && *a.CompanyID != *b.CompanyID {
		return false
	}
	return a.UserID == b.UserID &&
		a.Username == b.Username &&
		a.Email == b.Email &&
		a.AccountType == b.AccountType &&
		a.SystemRole == b.SystemRole &&
		a.TeamRole == b.TeamRole &&
		a.ProfileComplete == b.ProfileComplete &&
		a.CompanyName == b.CompanyName &&
		a.ExpiresAt.Equal(b.ExpiresAt)
}

// DisplayName is the username, falling back to the email.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.Username != "" {
		return s.Username
	}
	return s.Email
}
