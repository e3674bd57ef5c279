package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/notify"
)

// Notifications lists a user's notifications, unfiltered.
func (c *Client) Notifications(ctx context.Context, userID int64) ([]notify.Notification, error) {
	var ns []notify.Notification
	if err := c.do(ctx, http.MethodGet, idPath("/notificaciones/usuario/%d", userID), nil, nil, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// Inbox returns the notifications a user should see, newest first: those
// their preferences allow and, for individual accounts, those about their
// own products. Preferences that fail to load count as all enabled, unless
// the backend rejected the session.
func (c *Client) Inbox(ctx context.Context, userID int64, access authz.Context) ([]notify.Notification, error) {
	all, err := c.Notifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := c.Preferences(ctx, userID)
	if IsUnauthorized(err) {
		return nil, err
	}
	if err != nil {
		c.Logger.WithError(err).WarnContext(ctx, "failed to load notification preferences; showing all kinds")
		prefs = notify.AllEnabled()
	}
	var names []string
	if access.Individual {
		if names, err = c.ProductNames(ctx, userID); err != nil {
			return nil, err
		}
	}

	shown := notify.Filter(all, prefs, access, names)
	sort.SliceStable(shown, func(i, j int) bool {
		ti, _ := shown[i].Time()
		tj, _ := shown[j].Time()
		return ti.After(tj)
	})
	return shown, nil
}

// MarkRead marks one notification as read.
func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	return c.do(ctx, http.MethodPatch, idPath("/notificaciones/%d", notificationID), nil, nil, nil)
}

// SendAppUpdate broadcasts an app-update notification. Developers only.
func (c *Client) SendAppUpdate(ctx context.Context, title, message string) error {
	body := map[string]string{"titulo": title, "mensaje": message}
	return c.do(ctx, http.MethodPost, "/notificaciones/actualizacion-app", nil, body, nil)
}

// SendNotification sends a notification of type t to one user.
func (c *Client) SendNotification(ctx context.Context, userID int64, t notify.Type, title, message string) error {
	body := struct {
		Type    notify.Type `json:"tipo"`
		Title   string      `json:"titulo"`
		Message string      `json:"mensaje"`
		UserID  int64       `json:"idUsuario"`
	}{t, title, message, userID}
	return c.do(ctx, http.MethodPost, "/notificaciones", nil, body, nil)
}

// Preferences fetches the user's notification switches. A user who never
// saved any gets everything enabled.
func (c *Client) Preferences(ctx context.Context, userID int64) (notify.Preferences, error) {
	prefs := notify.AllEnabled()
	if err := c.do(ctx, http.MethodGet, idPath("/preferencias-notificaciones/%d", userID), nil, nil, &prefs); err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return notify.AllEnabled(), nil
		}
		return notify.Preferences{}, err
	}
	return prefs, nil
}

// UpdatePreferences stores the user's notification switches.
func (c *Client) UpdatePreferences(ctx context.Context, userID int64, prefs notify.Preferences) error {
	return c.do(ctx, http.MethodPut, idPath("/preferencias-notificaciones/%d", userID), nil, prefs, nil)
}
