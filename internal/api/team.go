package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// NewTeamMember is the payload for adding a member to the owner's company.
// New members start with ProfileComplete true, meaning they still have to
// finish their profile on first sign-in.
type NewTeamMember struct {
	Username        string `json:"username"`
	Email           string `json:"correo"`
	Password        string `json:"password"`
	FullName        string `json:"nombreCompleto"`
	TeamRole        string `json:"rolEquipo"`
	Phone           string `json:"telefono"`
	Address         string `json:"direccion"`
	Photo           string `json:"fotoPerfil,omitempty"`
	Status          string `json:"estado,omitempty"`
	CompanyID       *int64 `json:"empresaId,omitempty"`
	ProfileComplete *bool  `json:"perfilCompleto,omitempty"`
}

// TeamMemberUpdate is a partial update of a member.
type TeamMemberUpdate struct {
	FullName        string `json:"nombreCompleto,omitempty"`
	Email           string `json:"correo,omitempty"`
	TeamRole        string `json:"rolEquipo,omitempty"`
	Phone           string `json:"telefono,omitempty"`
	Address         string `json:"direccion,omitempty"`
	Photo           string `json:"fotoPerfil,omitempty"`
	Status          string `json:"estado,omitempty"`
	ProfileComplete *bool  `json:"perfilCompleto,omitempty"`
}

// TeamFilter narrows the team list.
type TeamFilter struct {
	FullName        string
	Email           string
	TeamRole        string
	Status          string
	ProfileComplete *bool
}

func (f TeamFilter) values() url.Values {
	q := url.Values{}
	setIf(q, "nombreCompleto", f.FullName)
	setIf(q, "correo", f.Email)
	setIf(q, "rolEquipo", f.TeamRole)
	setIf(q, "estado", f.Status)
	if f.ProfileComplete != nil {
		q.Set("perfilCompleto", strconv.FormatBool(*f.ProfileComplete))
	}
	return q
}

// Team lists the members of the caller's company.
func (c *Client) Team(ctx context.Context) ([]User, error) {
	var members []User
	if err := c.do(ctx, http.MethodGet, "/equipo", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// FilterTeam lists members matching f.
func (c *Client) FilterTeam(ctx context.Context, f TeamFilter) ([]User, error) {
	var members []User
	if err := c.do(ctx, http.MethodGet, "/equipo/filtrar", f.values(), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// AddTeamMember creates a member.
func (c *Client) AddTeamMember(ctx context.Context, m NewTeamMember) (*User, error) {
	if m.ProfileComplete == nil {
		pending := true
		m.ProfileComplete = &pending
	}
	if m.Status == "" {
		m.Status = "activo"
	}
	var created User
	if err := c.do(ctx, http.MethodPost, "/equipo", nil, m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTeamMember applies a partial update.
func (c *Client) UpdateTeamMember(ctx context.Context, id int64, u TeamMemberUpdate) error {
	return c.do(ctx, http.MethodPut, idPath("/equipo/%d", id), nil, u, nil)
}

// DeactivateTeamMember soft-deletes a member.
func (c *Client) DeactivateTeamMember(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/equipo/eliminar-logico/%d", id), nil, nil, nil)
}
