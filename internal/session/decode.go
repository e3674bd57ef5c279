package session

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/log"
)

// Claims is the token payload issued by the backend.
type Claims struct {
	jwt.RegisteredClaims

	UserID          int64   `json:"id"`
	Username        string  `json:"username,omitempty"`
	Email           string  `json:"correo,omitempty"`
	AccountType     string  `json:"tipoUsuario"`
	SystemRole      string  `json:"rol"`
	TeamRole        *string `json:"rolEquipo,omitempty"`
	CompanyID       *int64  `json:"empresaId,omitempty"`
	ProfileComplete bool    `json:"perfilCompleto,omitempty"`
	CompanyName     string  `json:"nombreEmpresa,omitempty"`
}

// Decoder turns token strings into sessions.
//
// With a secret the HS256 signature is verified. Without one the payload is
// read unverified, since the backend remains the authority on every request.
// Expiry is enforced either way.
type Decoder struct {
	secret []byte
	now    func() time.Time
	logger *log.Logger
}

// NewDecoder creates a decoder. An empty secret disables signature checks.
func NewDecoder(secret []byte) *Decoder {
	return &Decoder{
		secret: secret,
		now:    time.Now,
		logger: log.DefaultLogger(),
	}
}

// WithClock overrides the time source used for expiry checks.
func (d *Decoder) WithClock(now func() time.Time) *Decoder {
	d.now = now
	return d
}

// WithLogger sets the logger used for normalization warnings.
func (d *Decoder) WithLogger(logger *log.Logger) *Decoder {
	d.logger = logger
	return d
}

// Verifies reports whether signatures are checked.
func (d *Decoder) Verifies() bool {
	return len(d.secret) > 0
}

// Decode parses token into a fully populated Session or fails.
func (d *Decoder) Decode(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New(errors.ErrCodeTokenMissing, "token is empty")
	}

	claims := &Claims{}
	if d.Verifies() {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return d.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(d.now),
		)
		if err != nil {
			return nil, classify(err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, classify(err)
		}
		if claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
			return nil, errors.NewTokenExpiredError(jwt.ErrTokenExpired)
		}
	}

	s, err := d.fromClaims(claims)
	if err != nil {
		return nil, err
	}
	s.token = token
	return s, nil
}

func (d *Decoder) fromClaims(c *Claims) (*Session, error) {
	var missing []string
	if c.UserID <= 0 {
		missing = append(missing, "id")
	}
	if c.AccountType == "" {
		missing = append(missing, "tipoUsuario")
	}
	if c.SystemRole == "" {
		missing = append(missing, "rol")
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.ErrCodeClaimsIncomplete,
			fmt.Sprintf("token is missing required claims: %s", strings.Join(missing, ", "))).
			WithSuggestion("Log in again to obtain a fresh token")
	}

	accountType := AccountType(c.AccountType)
	if !accountType.Valid() {
		return nil, errors.New(errors.ErrCodeClaimsIncomplete,
			fmt.Sprintf("unknown account type %q", c.AccountType))
	}

	s := &Session{
		UserID:          c.UserID,
		Username:        c.Username,
		Email:           c.Email,
		AccountType:     accountType,
		SystemRole:      SystemRole(c.SystemRole),
		CompanyID:       c.CompanyID,
		ProfileComplete: c.ProfileComplete,
		CompanyName:     c.CompanyName,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	if c.TeamRole != nil {
		s.TeamRole = TeamRole(*c.TeamRole)
	}

	if s.TeamRole != TeamRoleNone && s.SystemRole != RoleTeamMember {
		d.logger.Warn("dropping team role from non team-member token",
			"user_id", s.UserID,
			"system_role", string(s.SystemRole),
			"team_role", string(s.TeamRole),
		)
		s.TeamRole = TeamRoleNone
	}

	return s, nil
}

func classify(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return errors.NewTokenExpiredError(err)
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid), stderrors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Wrap(errors.ErrCodeTokenSignature, "token signature is invalid", err).
			WithSuggestion("Check token_secret in your configuration matches the backend")
	default:
		return errors.Wrap(errors.ErrCodeTokenMalformed, "failed to decode token", err)
	}
}
