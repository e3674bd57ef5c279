// Package account holds the flows that change who is signed in: logging in
// and completing a team member's profile. Both the terminal UI and the
// commands go through here so the session store is updated the same way.
package account

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/producttrack/producttrack/internal/api"
	pterrors "github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/log"
	"github.com/producttrack/producttrack/internal/session"
)

// passwordSymbols are the characters accepted as the required symbol.
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword enforces the password policy: at least 8 characters
// with an upper case letter, a lower case letter, a digit and a symbol.
func ValidatePassword(p string) error {
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	var missing []string
	if len([]rune(p)) < 8 {
		missing = append(missing, "8 characters")
	}
	if !upper {
		missing = append(missing, "an upper case letter")
	}
	if !lower {
		missing = append(missing, "a lower case letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !symbol {
		missing = append(missing, "a symbol")
	}
	if len(missing) > 0 {
		return fmt.Errorf("password needs at least %s", strings.Join(missing, ", "))
	}
	return nil
}

// SignIn exchanges credentials for a token and installs it in the store.
func SignIn(ctx context.Context, client *api.Client, store *session.Store, email, password string) (*session.Session, error) {
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return store.Login(resp.Token)
}

// ProfileDetails is what a team member fills in on first login.
type ProfileDetails struct {
	Username string
	Phone    string
	Address  string
	Password string
}

// CompleteProfile clears the pending-setup flag on the backend and signs in
// again with the new password so the session carries fresh claims.
func CompleteProfile(ctx context.Context, client *api.Client, store *session.Store, d ProfileDetails) (string, error) {
	s := store.Session()
	if s == nil {
		return "", pterrors.NewNotAuthenticatedError()
	}
	res, err := SubmitProfile(ctx, client, s, d)
	if err != nil {
		return "", err
	}
	if err := ApplyProfile(ctx, store, res); err != nil {
		return res.Message, err
	}
	return res.Message, nil
}

// ProfileResult is the backend's answer to a profile submission.
type ProfileResult struct {
	Message string
	// Token is the token from signing in again, empty if that failed.
	Token string
	// LoginErr is why signing in again failed.
	LoginErr error
}

// SubmitProfile sends the profile to the backend and signs in again. It
// does not touch the session store, so it may run off the UI loop.
func SubmitProfile(ctx context.Context, client *api.Client, s *session.Session, d ProfileDetails) (ProfileResult, error) {
	if d.Password == "" {
		return ProfileResult{}, pterrors.New(pterrors.ErrCodeInvalidInput, "a new password is required")
	}
	if err := ValidatePassword(d.Password); err != nil {
		return ProfileResult{}, pterrors.Wrap(pterrors.ErrCodeInvalidInput, "new password rejected", err)
	}

	pending := false
	msg, err := client.UpdateUser(ctx, s.UserID, api.UserUpdate{
		Username:        d.Username,
		Phone:           d.Phone,
		Address:         d.Address,
		Password:        d.Password,
		ProfileComplete: &pending,
	})
	if err != nil {
		return ProfileResult{}, err
	}

	res := ProfileResult{Message: msg}
	if resp, err := client.Login(ctx, s.Email, d.Password); err != nil {
		log.DefaultLogger().WithError(err).WarnContext(ctx, "re-login after profile completion failed")
		res.LoginErr = err
	} else {
		res.Token = resp.Token
	}
	return res, nil
}

// ApplyProfile installs the token from SubmitProfile. Without a usable
// token the session is ended: the stored token still marks setup as
// pending, and the user signs in again with the new password.
func ApplyProfile(ctx context.Context, store *session.Store, res ProfileResult) error {
	cause := res.LoginErr
	if res.Token != "" {
		_, err := store.Login(res.Token)
		if err == nil {
			return nil
		}
		cause = err
	}

	log.DefaultLogger().WithError(cause).WarnContext(ctx, "no fresh token after profile completion; signing out")
	if err := store.Logout(); err != nil {
		log.DefaultLogger().WithError(err).WarnContext(ctx, "failed to clear persisted session")
	}
	return pterrors.NewSignInAgainError("Your profile", cause)
}
