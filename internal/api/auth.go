package api

import (
	"context"
	"net/http"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// LoginUser is the user summary returned with the token. Older backends send
// the id as idUsuario.
type LoginUser struct {
	ID              int64  `json:"id"`
	IDUsuario       int64  `json:"idUsuario"`
	Username        string `json:"username"`
	AccountType     string `json:"tipoUsuario"`
	Role            string `json:"rol"`
	TeamRole        string `json:"rolEquipo"`
	ProfileComplete bool   `json:"perfilCompleto"`
}

// UserID returns whichever id the backend sent.
func (u LoginUser) UserID() int64 {
	if u.ID != 0 {
		return u.ID
	}
	return u.IDUsuario
}

// Login exchanges credentials for a token. Wrong credentials come back as
// a 401 and are reported as a bad-credentials error rather than
// ErrUnauthorized, since there is no session to end.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{Email: email, Password: password}, &resp)
	if IsUnauthorized(err) {
		return nil, pterrors.New(pterrors.ErrCodeAPIUnauthorized, "incorrect credentials").
			WithSuggestion("Check your email and password")
	}
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, pterrors.New(pterrors.ErrCodeAPIResponse, "login response carried no token")
	}
	return &resp, nil
}

// RequestPasswordReset asks the backend to email a reset code.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/solicitar-reset", nil, map[string]string{"correo": email}, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ConfirmPasswordReset sets a new password using the emailed code.
func (c *Client) ConfirmPasswordReset(ctx context.Context, code, newPassword string) (string, error) {
	body := map[string]string{"token": code, "nuevaContrasena": newPassword}
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/confirmar-reset", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// messageResponse is the backend's acknowledgement body.
type messageResponse struct {
	Message string `json:"message"`
	Mensaje string `json:"mensaje"`
}

func (m messageResponse) Text() string {
	if m.Mensaje != "" {
		return m.Mensaje
	}
	return m.Message
}
