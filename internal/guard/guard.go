// Package guard decides, for every navigation, whether to render the
// requested route, wait for the session to load, or redirect.
package guard

import (
	"fmt"

	"github.com/producttrack/producttrack/internal/authz"
	"github.com/producttrack/producttrack/internal/errors"
	"github.com/producttrack/producttrack/internal/session"
)

// MaxHops bounds the redirects Navigate follows.
const MaxHops = 8

// State is the guard's view of the session.
type State int

const (
	Unknown State = iota
	Anonymous
	AuthenticatedIncomplete
	AuthenticatedActive
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Anonymous:
		return "anonymous"
	case AuthenticatedIncomplete:
		return "authenticated_incomplete"
	case AuthenticatedActive:
		return "authenticated_active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateOf derives the state from the loading flag and capabilities.
func StateOf(loading bool, c authz.Context) State {
	switch {
	case loading:
		return Unknown
	case !c.Authenticated:
		return Anonymous
	case c.ProfileSetupPending:
		return AuthenticatedIncomplete
	default:
		return AuthenticatedActive
	}
}

// Action is what the view layer must do.
type Action int

const (
	Wait Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the outcome for one path. Target is the redirect destination,
// or the cleaned requested path for Render and Wait.
type Decision struct {
	Action Action `json:"-" yaml:"-"`
	Target string `json:"target" yaml:"target"`
	Reason string `json:"reason" yaml:"reason"`
}

func render(p, reason string) Decision   { return Decision{Action: Render, Target: p, Reason: reason} }
func redirect(p, reason string) Decision { return Decision{Action: Redirect, Target: p, Reason: reason} }

// Resolve applies the guard rules to one path.
func Resolve(state State, c authz.Context, requested string) Decision {
	p := Clean(requested)
	route, known := routes[p]

	if known && route.Public {
		return render(p, "public route")
	}
	if state == Unknown {
		return Decision{Action: Wait, Target: p, Reason: "session loading"}
	}
	if p == PathRoot {
		if state == Anonymous {
			return redirect(PathRegister, "root without session")
		}
		return redirect(c.Landing(), "root with session")
	}
	if !known {
		return redirect(PathRoot, "unknown path")
	}

	switch state {
	case Anonymous:
		return redirect(PathRegister, "login required")
	case AuthenticatedIncomplete:
		if p == PathCompleteProfile {
			return render(p, "profile setup pending")
		}
		return redirect(PathCompleteProfile, "profile setup pending")
	default:
		if p == PathCompleteProfile {
			return redirect(c.Landing(), "profile already complete")
		}
		if route.Allow != nil && route.Allow(c) {
			return render(p, "authorized")
		}
		return redirect(c.Landing(), "not authorized")
	}
}

// SessionSource is the part of the session store the guard reads.
type SessionSource interface {
	Loading() bool
	Session() *session.Session
}

// Guard resolves navigations against the live session. Nothing is cached:
// every call reads the source afresh.
type Guard struct {
	src SessionSource
}

// New creates a guard over src.
func New(src SessionSource) *Guard {
	return &Guard{src: src}
}

// State returns the current guard state.
func (g *Guard) State() State {
	return StateOf(g.src.Loading(), authz.Evaluate(g.src.Session()))
}

// Context returns the capabilities of the current session.
func (g *Guard) Context() authz.Context {
	return authz.Evaluate(g.src.Session())
}

// Resolve decides a single hop for path.
func (g *Guard) Resolve(path string) Decision {
	loading := g.src.Loading()
	c := authz.Evaluate(g.src.Session())
	return Resolve(StateOf(loading, c), c, path)
}

// Navigation is the result of following redirects.
type Navigation struct {
	Decision Decision `json:"decision" yaml:"decision"`
	Action   string   `json:"action" yaml:"action"`
	Trail    []string `json:"trail" yaml:"trail"`
}

// Navigate follows redirects from path until the guard renders or waits.
func (g *Guard) Navigate(path string) (Navigation, error) {
	loading := g.src.Loading()
	c := authz.Evaluate(g.src.Session())
	return Follow(StateOf(loading, c), c, path)
}

// Follow is Navigate over an explicit state and context.
func Follow(state State, c authz.Context, path string) (Navigation, error) {
	trail := []string{Clean(path)}
	current := path
	for hop := 0; hop <= MaxHops; hop++ {
		d := Resolve(state, c, current)
		if d.Action != Redirect {
			return Navigation{Decision: d, Action: d.Action.String(), Trail: trail}, nil
		}
		trail = append(trail, d.Target)
		current = d.Target
	}
	return Navigation{Trail: trail}, errors.New(errors.ErrCodeNotAuthorized,
		fmt.Sprintf("redirect limit exceeded navigating to %s", Clean(path)))
}
