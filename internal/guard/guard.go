// Package guard decides whether a view that needs a signed-in user may render.
package guard

import (
	"strconv"
	"strings"
)

// Home is the public landing view denied navigations are sent to.
const Home = "/"

// TokenSource yields the current session token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// Decision is the outcome of one navigation check. When Allow is false the
// caller navigates to Redirect; Replace means the denied path must not be
// left in history.
type Decision struct {
	Allow    bool
	Redirect string
	Replace  bool
}

// Guard checks navigations against the session. It keeps no state of its
// own: the token is read on every call.
type Guard struct {
	tokens TokenSource
}

func New(tokens TokenSource) *Guard {
	return &Guard{tokens: tokens}
}

// Check evaluates a navigation to path.
func (g *Guard) Check(path string) Decision {
	if !Protected(path) || g.tokens.Token() != "" {
		return Decision{Allow: true}
	}
	return Decision{Redirect: Home, Replace: true}
}

// Protected reports whether path names a view that needs a session:
// /{resource}/create, /{resource}/{id} and /{resource}/{id}/edit. Index
// views and the landing view are public.
func Protected(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || segs[0] == "" {
		return false
	}

	switch {
	case len(segs) == 2 && segs[1] == "create":
		return true
	case len(segs) == 2:
		return isID(segs[1])
	case len(segs) == 3:
		return isID(segs[1]) && segs[2] == "edit"
	default:
		return false
	}
}

func isID(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
