// Package routes holds the client-side route table of the single-page app
// and the navigation guard that keeps users on the upload view until a
// file has been loaded.
package routes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/csvstats/internal/state"
)

// View identifies the frontend component rendered for a route.
type View string

const (
	ViewStatistics View = "Statistics"
	ViewCalendar   View = "Calendar"
	ViewFileUpload View = "FileUpload"
)

// Paths of the named routes.
const (
	PathStatistics = "/"
	PathCalendar   = "/calendar"
	PathFileUpload = "/file-upload"
	PathWildcard   = "*"
)

// maxRedirects bounds guard redirect chains.
const maxRedirects = 8

// ErrRedirectLoop is returned when guards keep redirecting.
var ErrRedirectLoop = errors.New("navigation redirect loop")

// Route maps a path to a view.
type Route struct {
	Path string `json:"path"`
	Name string `json:"name"`
	View View   `json:"view"`
}

// Table is the route table of the app. The wildcard entry must stay last.
var Table = []Route{
	{Path: PathStatistics, Name: "Statistics", View: ViewStatistics},
	{Path: PathCalendar, Name: "Calendar", View: ViewCalendar},
	{Path: PathFileUpload, Name: "FileUpload", View: ViewFileUpload},
	{Path: PathWildcard, Name: "Statistics", View: ViewStatistics},
}

// Guard inspects a pending navigation. It returns the path to redirect to,
// or "" to let the navigation through.
type Guard func(to Route, st state.State) string

// RequireFile sends every navigation to the upload view while no file data
// is loaded.
func RequireFile(to Route, st state.State) string {
	if st.HasFileData() || to.Path == PathFileUpload {
		return ""
	}
	return PathFileUpload
}

// Navigation is the outcome of resolving a path.
type Navigation struct {
	Route          Route  `json:"route"`
	Requested      string `json:"requested"`
	RedirectedFrom string `json:"redirected_from,omitempty"`
}

// Redirected reports whether a guard changed the destination.
func (n Navigation) Redirected() bool {
	return n.RedirectedFrom != ""
}

// Router resolves paths against a route table and runs guards.
type Router struct {
	routes []Route
	guards []Guard
}

// New returns a Router over Table with the given guards, run in order.
func New(guards ...Guard) *Router {
	return &Router{routes: Table, guards: guards}
}

// Default returns the app router with the file guard installed.
func Default() *Router {
	return New(RequireFile)
}

// Routes returns a copy of the route table.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Match returns the route for path, falling back to the wildcard route.
func (r *Router) Match(path string) Route {
	p := normalize(path)
	var wildcard Route
	for _, rt := range r.routes {
		if rt.Path == PathWildcard {
			wildcard = rt
			continue
		}
		if rt.Path == p {
			return rt
		}
	}
	return wildcard
}

// Navigate resolves path for the given state, following guard redirects.
func (r *Router) Navigate(path string, st state.State) (Navigation, error) {
	nav := Navigation{Requested: normalize(path)}
	target := nav.Requested
	for i := 0; i <= maxRedirects; i++ {
		to := r.Match(target)
		redirect := r.runGuards(to, st)
		if redirect == "" {
			nav.Route = to
			return nav, nil
		}
		if nav.RedirectedFrom == "" {
			nav.RedirectedFrom = target
		}
		target = normalize(redirect)
	}
	return nav, fmt.Errorf("%w: from %s", ErrRedirectLoop, nav.Requested)
}

func (r *Router) runGuards(to Route, st state.State) string {
	for _, g := range r.guards {
		if redirect := g(to, st); redirect != "" {
			return redirect
		}
	}
	return ""
}

// normalize strips query and fragment and any trailing slash.
func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
