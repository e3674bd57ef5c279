// Package sessiontest issues tokens in the backend's claim layout for tests.
package sessiontest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/producttrack/producttrack/internal/session"
)

// Secret is the HS256 key used by Token.
var Secret = []byte("producttrack-test-secret")

// Claims builds backend claims for s expiring in one hour.
func Claims(s *session.Session) session.Claims {
	c := session.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:          s.UserID,
		Username:        s.Username,
		Email:           s.Email,
		AccountType:     string(s.AccountType),
		SystemRole:      string(s.SystemRole),
		CompanyID:       s.CompanyID,
		ProfileComplete: s.ProfileComplete,
		CompanyName:     s.CompanyName,
	}
	if s.TeamRole != session.TeamRoleNone {
		tr := string(s.TeamRole)
		c.TeamRole = &tr
	}
	return c
}

// Sign signs arbitrary claims with key.
func Sign(t testing.TB, claims jwt.Claims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// Token returns a token for s signed with Secret.
func Token(t testing.TB, s *session.Session) string {
	t.Helper()
	return Sign(t, Claims(s), Secret)
}

// Business owner, team member, individual, admin and developer fixtures.
func Owner() *session.Session {
	id := int64(10)
	return &session.Session{UserID: 1, Username: "owner", Email: "owner@acme.test",
		AccountType: session.AccountBusiness, SystemRole: session.RoleUser, CompanyID: &id, CompanyName: "Acme"}
}

func TeamMember(role session.TeamRole) *session.Session {
	id := int64(10)
	return &session.Session{UserID: 2, Username: "member", Email: "member@acme.test",
		AccountType: session.AccountBusiness, SystemRole: session.RoleTeamMember, TeamRole: role, CompanyID: &id}
}

func Individual() *session.Session {
	return &session.Session{UserID: 3, Username: "ana", Email: "ana@mail.test",
		AccountType: session.AccountIndividual, SystemRole: session.RoleUser}
}

func Admin(account session.AccountType) *session.Session {
	return &session.Session{UserID: 4, Username: "root", Email: "root@producttrack.test",
		AccountType: account, SystemRole: session.RoleAdmin}
}

func Developer(account session.AccountType) *session.Session {
	return &session.Session{UserID: 5, Username: "dev", Email: "dev@producttrack.test",
		AccountType: account, SystemRole: session.RoleDeveloper}
}
