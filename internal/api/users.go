package api

import (
	"context"
	"net/http"
	"net/url"
)

// User is the backend user record.
type User struct {
	ID              int64  `json:"idUsuario" yaml:"id"`
	Username        string `json:"username" yaml:"username"`
	Email           string `json:"correo" yaml:"email"`
	FullName        string `json:"nombreCompleto" yaml:"full_name"`
	Phone           string `json:"telefono,omitempty" yaml:"phone,omitempty"`
	Address         string `json:"direccion,omitempty" yaml:"address,omitempty"`
	CompanyName     string `json:"nombreEmpresa,omitempty" yaml:"company_name,omitempty"`
	NIT             string `json:"nit,omitempty" yaml:"nit,omitempty"`
	Status          string `json:"estado" yaml:"status"`
	Role            string `json:"rol" yaml:"role"`
	AccountType     string `json:"tipoUsuario,omitempty" yaml:"account_type,omitempty"`
	TeamRole        string `json:"rolEquipo,omitempty" yaml:"team_role,omitempty"`
	ProfileComplete bool   `json:"perfilCompleto,omitempty" yaml:"profile_complete,omitempty"`
	CompanyID       *int64 `json:"empresaId,omitempty" yaml:"company_id,omitempty"`
	Photo           string `json:"fotoPerfil,omitempty" yaml:"photo,omitempty"`
}

// Active reports whether the account is enabled.
func (u User) Active() bool {
	return u.Status == "" || u.Status == "activo"
}

// Registration is a self-service sign-up. Business accounts also carry the
// company fields.
type Registration struct {
	Username    string `json:"username"`
	Email       string `json:"correo"`
	Password    string `json:"password"`
	FullName    string `json:"nombreCompleto"`
	Phone       string `json:"telefono"`
	Address     string `json:"direccion"`
	Role        string `json:"rol"`
	AccountType string `json:"tipoUsuario"`
	CompanyName string `json:"nombreEmpresa,omitempty"`
	NIT         string `json:"nit,omitempty"`
}

// UserUpdate is a partial update; empty fields are left untouched.
type UserUpdate struct {
	Username        string `json:"username,omitempty"`
	FullName        string `json:"nombreCompleto,omitempty"`
	Email           string `json:"correo,omitempty"`
	Phone           string `json:"telefono,omitempty"`
	Address         string `json:"direccion,omitempty"`
	Password        string `json:"password,omitempty"`
	CompanyName     string `json:"nombreEmpresa,omitempty"`
	NIT             string `json:"nit,omitempty"`
	ProfileComplete *bool  `json:"perfilCompleto,omitempty"`
}

// UserFilter narrows the audit user list.
type UserFilter struct {
	FullName    string
	Email       string
	AccountType string
	Role        string
	Status      string
}

func (f UserFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "nombreCompleto", f.FullName)
	setIf(q, "correo", f.Email)
	setIf(q, "tipoUsuario", f.AccountType)
	setIf(q, "rol", f.Role)
	setIf(q, "estado", f.Status)
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// Register creates a new account. It does not sign in.
func (c *Client) Register(ctx context.Context, r Registration) error {
	if r.Role == "" {
		r.Role = "USUARIO"
	}
	return c.do(ctx, http.MethodPost, "/usuarios", nil, r, nil)
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, idPath("/usuarios/%d", id), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCompany fetches the company record for a company id.
func (c *Client) GetCompany(ctx context.Context, companyID int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, idPath("/usuarios/empresa/%d", companyID), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a partial update.
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPut, idPath("/usuarios/%d", id), nil, update, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ChangePassword replaces the password after checking the current one.
func (c *Client) ChangePassword(ctx context.Context, id int64, current, next string) (string, error) {
	body := struct {
		ID              int64  `json:"id"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{id, current, next}

	var resp messageResponse
	if err := c.do(ctx, http.MethodPut, "/usuarios/cambiarContrasena", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// ListUsers lists every user, optionally filtered. Audit only.
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/usuarios", filter.values(), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeactivateUser soft-deletes a user.
func (c *Client) DeactivateUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/usuarios/%d", id), nil, nil, nil)
}

// ReactivateUser re-enables a deactivated user.
func (c *Client) ReactivateUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, idPath("/usuarios/%d/reactivar", id), nil, nil, nil)
}
