// Package notify decides which notifications reach the user, based on the
// per-user preferences and, for individual accounts, on product ownership.
package notify

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/keystore"
)

// Type is the backend notification type.
type Type string

const (
	TypeLowStock  Type = "STOCK_BAJO"
	TypeExpired   Type = "PRODUCTO_VENCIDO"
	TypeComment   Type = "COMENTARIO_EQUIPO"
	TypeRestock   Type = "REPOSICION_RECOMENDADA"
	TypeAppUpdate Type = "ACTUALIZACION_APP"
)

// Kind is a preference key.
type Kind string

const (
	KindLowStock  Kind = "stockBajo"
	KindExpired   Kind = "productoVencido"
	KindComments  Kind = "comentarios"
	KindRestock   Kind = "reposicion"
	KindAppUpdate Kind = "actualizacion"
)

// Kinds lists every preference in display order.
var Kinds = []Kind{KindLowStock, KindExpired, KindComments, KindRestock, KindAppUpdate}

var kindOfType = map[Type]Kind{
	TypeLowStock:  KindLowStock,
	TypeExpired:   KindExpired,
	TypeComment:   KindComments,
	TypeRestock:   KindRestock,
	TypeAppUpdate: KindAppUpdate,
}

// KindOf maps a notification type to its preference. Unknown types have none.
func KindOf(t Type) (Kind, bool) {
	k, ok := kindOfType[t]
	return k, ok
}

// Label is a human description of a preference.
func (k Kind) Label() string {
	switch k {
	case KindLowStock:
		return "Low stock"
	case KindExpired:
		return "Expired product"
	case KindComments:
		return "Team comments"
	case KindRestock:
		return "Restock recommendation"
	case KindAppUpdate:
		return "App updates"
	default:
		return string(k)
	}
}

// ParseKind accepts a preference key in any case.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// Notification as delivered by the backend.
type Notification struct {
	ID      int64  `json:"idNotificacion" yaml:"id"`
	Type    Type   `json:"tipo" yaml:"type"`
	Title   string `json:"titulo" yaml:"title"`
	Message string `json:"mensaje" yaml:"message"`
	Read    bool   `json:"leida" yaml:"read"`
	SentAt  string `json:"fechaEnvio" yaml:"sent_at"`
}

// Time parses SentAt, accepting RFC 3339 and the backend's local timestamp
// without zone.
func (n Notification) Time() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, n.SentAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Preferences are the per-user switches. The zero value disables all;
// use AllEnabled for the default.
type Preferences struct {
	LowStock  bool `json:"stockBajo" yaml:"stockBajo"`
	Expired   bool `json:"productoVencido" yaml:"productoVencido"`
	Comments  bool `json:"comentarios" yaml:"comentarios"`
	Restock   bool `json:"reposicion" yaml:"reposicion"`
	AppUpdate bool `json:"actualizacion" yaml:"actualizacion"`
}

// AllEnabled is the default before preferences are loaded.
func AllEnabled() Preferences {
	return Preferences{LowStock: true, Expired: true, Comments: true, Restock: true, AppUpdate: true}
}

// Enabled reports the switch for k.
func (p Preferences) Enabled(k Kind) bool {
	switch k {
	case KindLowStock:
		return p.LowStock
	case KindExpired:
		return p.Expired
	case KindComments:
		return p.Comments
	case KindRestock:
		return p.Restock
	case KindAppUpdate:
		return p.AppUpdate
	default:
		return false
	}
}

// With returns p with k set to on.
func (p Preferences) With(k Kind, on bool) Preferences {
	switch k {
	case KindLowStock:
		p.LowStock = on
	case KindExpired:
		p.Expired = on
	case KindComments:
		p.Comments = on
	case KindRestock:
		p.Restock = on
	case KindAppUpdate:
		p.AppUpdate = on
	}
	return p
}

// productTypes are only relevant to an individual when they name one of
// the user's products.
var productTypes = map[Type]bool{
	TypeExpired:  true,
	TypeRestock:  true,
	TypeLowStock: true,
}

// Filter returns the notifications the user should see. Types without a
// preference are dropped. Individual accounts additionally see product
// notifications only when the message mentions a product they own.
func Filter(ns []Notification, prefs Preferences, c authz.Context, productNames []string) []Notification {
	lowered := make([]string, 0, len(productNames))
	for _, name := range productNames {
		if name = strings.TrimSpace(name); name != "" {
			lowered = append(lowered, strings.ToLower(name))
		}
	}

	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		k, ok := KindOf(n.Type)
		if !ok || !prefs.Enabled(k) {
			continue
		}
		if c.Individual && n.Type != TypeAppUpdate {
			if !productTypes[n.Type] || !mentionsAny(n.Message, lowered) {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func mentionsAny(message string, lowered []string) bool {
	msg := strings.ToLower(message)
	for _, name := range lowered {
		if strings.Contains(msg, name) {
			return true
		}
	}
	return false
}

// UnreadCount counts notifications not yet read.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.Read {
			n++
		}
	}
	return n
}

// CanNotify reports whether the client may emit a notification of kind k.
// With no stored preferences everything is allowed; otherwise only an
// explicit false blocks.
func CanNotify(kv keystore.Store, k Kind) bool {
	raw, ok := kv.Get(keystore.KeyNotifyPrefs)
	if !ok || raw == "" {
		return true
	}
	var stored map[string]bool
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return true
	}
	on, present := stored[string(k)]
	return !present || on
}

// SavePreferences caches prefs for CanNotify.
func SavePreferences(kv keystore.Store, prefs Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return kv.Set(keystore.KeyNotifyPrefs, string(data))
}

// LowStockThreshold is the quantity at or below which a product counts as
// low on stock.
func LowStockThreshold(c authz.Context) int {
	if c.Individual {
		return 2
	}
	return 30
}
