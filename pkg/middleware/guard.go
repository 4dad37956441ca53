// Package middleware decides who may see which page, and adapts those
// decisions to net/http.
package middleware

import (
	"net/http"
	"net/url"

	"storefront.app/pkg/apiclient"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Session is the read side of the auth store
type Session interface {
	Loading() bool
	User() *apiclient.User
}

// Kind is what a guard tells the caller to do
type Kind int

const (
	Render Kind = iota
	Placeholder
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome of a guard. From is set on login redirects so the
// user can be sent back after logging in.
type Decision struct {
	Kind     Kind
	Location string
	From     string
}

func render() Decision {
	return Decision{Kind: Render}
}

func placeholder() Decision {
	return Decision{Kind: Placeholder}
}

func redirect(location, from string) Decision {
	return Decision{Kind: Redirect, Location: location, From: from}
}

// ProtectedRoute admits logged-in users, optionally admins only
type ProtectedRoute struct {
	session      Session
	requireAdmin bool
}

func Protected(session Session, requireAdmin bool) ProtectedRoute {
	return ProtectedRoute{session: session, requireAdmin: requireAdmin}
}

// Decide evaluates the guard for a visit to origin
func (g ProtectedRoute) Decide(origin string) Decision {
	if g.session.Loading() {
		return placeholder()
	}
	user := g.session.User()
	if user == nil {
		return redirect(LoginPath, origin)
	}
	if g.requireAdmin && !user.IsAdmin() {
		return redirect(HomePath, "")
	}
	return render()
}

// AuthRedirectRoute keeps logged-in users off login and register pages
type AuthRedirectRoute struct {
	session Session
}

func AuthRedirect(session Session) AuthRedirectRoute {
	return AuthRedirectRoute{session: session}
}

func (g AuthRedirectRoute) Decide() Decision {
	if g.session.Loading() {
		return placeholder()
	}
	if g.session.User() != nil {
		return redirect(HomePath, "")
	}
	return render()
}

// LoginURL is the login location carrying the page to return to
func LoginURL(from string) string {
	if from == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {from}}.Encode()
}

func (d Decision) target() string {
	if d.Location == LoginPath {
		return LoginURL(d.From)
	}
	return d.Location
}

// serve writes the decision; it reports whether next should run
func (d Decision) serve(w http.ResponseWriter, r *http.Request) bool {
	switch d.Kind {
	case Render:
		return true
	case Placeholder:
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Session is loading", http.StatusServiceUnavailable)
		return false
	case Redirect:
		http.Redirect(w, r, d.target(), http.StatusFound)
		return false
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	return false
}

// RequireSession guards handlers with Protected
func RequireSession(session Session, requireAdmin bool) func(http.Handler) http.Handler {
	guard := Protected(session, requireAdmin)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard.Decide(r.URL.RequestURI()).serve(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RedirectAuthenticated guards handlers with AuthRedirect
func RedirectAuthenticated(session Session) func(http.Handler) http.Handler {
	guard := AuthRedirect(session)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard.Decide().serve(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}
