package tui

import "github.com/producttrack/producttrack/internal/session"

// sessionReadyMsg is sent once the store has left the loading state.
type sessionReadyMsg struct{}

// sessionChangedMsg is sent whenever the store publishes a new session.
type sessionChangedMsg struct {
	session *session.Session
}

// navigateMsg asks the app to go to a path through the guard.
type navigateMsg struct {
	path string
}

// resultMsg carries the outcome of background work. It is dropped when the
// session generation moved on or, for screen work, the issuing screen is no
// longer the one shown, even if a new screen now has the same path.
type resultMsg struct {
	gen    uint64
	path   string // issuing screen; empty for app-level work
	screen int    // issuing screen instance
	key    string
	value  any
	err    error
}

// toastMsg shows a transient notice.
type toastMsg struct {
	text string
	kind toastKind
}

// toastExpiredMsg clears the toast with the given id.
type toastExpiredMsg struct {
	id int
}

// adTickMsg fires every ads.TickInterval.
type adTickMsg struct{}

// adClosableMsg allows the ad to be dismissed.
type adClosableMsg struct {
	id int
}
