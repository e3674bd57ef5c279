package api

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ProductStatus is the stock state of a product.
type ProductStatus string

const (
	StatusAvailable ProductStatus = "DISPONIBLE"
	StatusSoldOut   ProductStatus = "AGOTADO"
	StatusReserved  ProductStatus = "RESERVADO"
	StatusExpired   ProductStatus = "VENCIDO"
)

// Product is an inventory item.
type Product struct {
	ID          int64         `json:"id,omitempty" yaml:"id,omitempty"`
	Barcode     *string       `json:"codigoBarras" yaml:"barcode,omitempty"`
	QRCode      *string       `json:"codigoQR" yaml:"qr_code,omitempty"`
	Name        string        `json:"nombre" yaml:"name"`
	Description string        `json:"descripcion" yaml:"description"`
	Quantity    int           `json:"cantidad" yaml:"quantity"`
	Price       float64       `json:"precio" yaml:"price"`
	AcquiredOn  string        `json:"fechaAdquisicion" yaml:"acquired_on"`
	ExpiresOn   string        `json:"fechaVencimiento" yaml:"expires_on"`
	Status      ProductStatus `json:"estado" yaml:"status"`
	Image       string        `json:"imagen" yaml:"image,omitempty"`
	Category    string        `json:"categoria,omitempty" yaml:"category,omitempty"`
	UserID      int64         `json:"usuarioId" yaml:"user_id"`
	Owner       *ProductOwner `json:"usuario,omitempty" yaml:"owner,omitempty"`
}

// Expiry reads the day part of ExpiresOn.
func (p Product) Expiry() (time.Time, bool) {
	day, _, _ := strings.Cut(p.ExpiresOn, "T")
	t, err := time.Parse("2006-01-02", day)
	return t, err == nil
}

// ExpiringWindow is how close to its expiry date a product counts as
// expiring.
const ExpiringWindow = 7 * 24 * time.Hour

// StockSummary counts products by the conditions shown on the dashboard.
type StockSummary struct {
	Total    int `json:"total" yaml:"total"`
	Units    int `json:"units" yaml:"units"`
	LowStock int `json:"low_stock" yaml:"low_stock"`
	Expired  int `json:"expired" yaml:"expired"`
	Expiring int `json:"expiring" yaml:"expiring"`
}

// Summarize counts products at or below threshold units, products past
// their expiry date or marked expired, and products expiring within
// ExpiringWindow of now's day.
func Summarize(products []Product, threshold int, now time.Time) StockSummary {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var s StockSummary
	for _, p := range products {
		s.Total++
		s.Units += p.Quantity
		if p.Quantity <= threshold {
			s.LowStock++
		}
		exp, ok := p.Expiry()
		switch {
		case p.Status == StatusExpired || (ok && exp.Before(today)):
			s.Expired++
		case ok && exp.Sub(today) <= ExpiringWindow:
			s.Expiring++
		}
	}
	return s
}

// ProductOwner is the owner summary embedded in product listings.
type ProductOwner struct {
	ID          int64  `json:"idUsuario" yaml:"id"`
	AccountType string `json:"tipoUsuario" yaml:"account_type"`
	CompanyID   *int64 `json:"empresaId,omitempty" yaml:"company_id,omitempty"`
}

// HistoryEntry is one inventory change.
type HistoryEntry struct {
	ID               int64    `json:"id" yaml:"id"`
	ProductName      string   `json:"nombreProducto" yaml:"product"`
	Action           string   `json:"accion" yaml:"action"` // agregado, modificado, eliminado
	PreviousQuantity *int     `json:"cantidad_anterior" yaml:"previous_quantity,omitempty"`
	NewQuantity      *int     `json:"cantidad_nueva" yaml:"new_quantity,omitempty"`
	PreviousPrice    *float64 `json:"precio_anterior" yaml:"previous_price,omitempty"`
	NewPrice         *float64 `json:"precio_nuevo" yaml:"new_price,omitempty"`
	ChangedAt        string   `json:"fechaCambio" yaml:"changed_at"`
}

// History actions.
const (
	ActionAdded    = "agregado"
	ActionModified = "modificado"
	ActionDeleted  = "eliminado"
)

// Kind normalizes Action; anything unrecognized counts as a deletion.
func (h HistoryEntry) Kind() string {
	switch strings.ToLower(h.Action) {
	case ActionAdded:
		return ActionAdded
	case ActionModified:
		return ActionModified
	default:
		return ActionDeleted
	}
}

// Time parses ChangedAt.
func (h HistoryEntry) Time() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, h.ChangedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NewestFirst sorts entries by change time, newest first. Entries without a
// readable time go last.
func NewestFirst(entries []HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, oki := entries[i].Time()
		tj, okj := entries[j].Time()
		if oki != okj {
			return oki
		}
		return ti.After(tj)
	})
}

// Comment is a note left on a product.
type Comment struct {
	ID        int64  `json:"id" yaml:"id"`
	Text      string `json:"comentario" yaml:"text"`
	CreatedAt string `json:"createdAt" yaml:"created_at"`
	Author    *struct {
		Name string `json:"nombre" yaml:"name"`
	} `json:"usuario,omitempty" yaml:"author,omitempty"`
}

// AuthorName falls back to a generic label when the backend omits it.
func (c Comment) AuthorName() string {
	if c.Author == nil || c.Author.Name == "" {
		return "Usuario"
	}
	return c.Author.Name
}

// Date is the day part of CreatedAt.
func (c Comment) Date() string {
	day, _, _ := strings.Cut(c.CreatedAt, "T")
	return day
}

// ListProducts returns every product visible to the token. accountType,
// when set, keeps only products owned by that kind of account.
func (c *Client) ListProducts(ctx context.Context, accountType string) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/productos", nil, nil, &products); err != nil {
		return nil, err
	}
	return OwnedBy(products, accountType), nil
}

// OwnedBy keeps the products whose owner has the given account type. An
// empty accountType keeps everything.
func OwnedBy(products []Product, accountType string) []Product {
	if accountType == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Owner != nil && strings.EqualFold(p.Owner.AccountType, accountType) {
			out = append(out, p)
		}
	}
	return out
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, idPath("/productos/%d", id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductsByCategory lists the products of one category.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	var products []Product
	q := url.Values{"categoria": {category}}
	if err := c.do(ctx, http.MethodGet, "/productos/por-categoria", q, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a product.
func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	var created Product
	if err := c.do(ctx, http.MethodPost, "/productos", nil, p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, p Product) error {
	return c.do(ctx, http.MethodPut, idPath("/productos/%d", id), nil, p, nil)
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/productos/%d", id), nil, nil, nil)
}

// Categories lists the categories available to an account type.
func (c *Client) Categories(ctx context.Context, accountType string) ([]string, error) {
	var categories []string
	q := url.Values{"tipoUsuario": {strings.ToUpper(accountType)}}
	if err := c.do(ctx, http.MethodGet, "/productos/categorias", q, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ProductNames lists the names of a user's products.
func (c *Client) ProductNames(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, idPath("/productos/nombres/%d", userID), nil, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// History lists a user's inventory changes.
func (c *Client) History(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := c.do(ctx, http.MethodGet, idPath("/historial/usuario/%d", userID), nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Comments lists the comments on a product.
func (c *Client) Comments(ctx context.Context, productID int64) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, idPath("/comentarios/%d", productID), nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a product.
func (c *Client) AddComment(ctx context.Context, userID, productID int64, text string) (*Comment, error) {
	body := struct {
		UserID    int64  `json:"idUsuario"`
		ProductID int64  `json:"idProducto"`
		Text      string `json:"comentario"`
	}{userID, productID, text}

	var created Comment
	if err := c.do(ctx, http.MethodPost, "/comentarios", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
