package routes

import (
	"net/http"

	"github.com/gorilla/mux"
)

// View identifies a page of the single-page client.
type View string

const (
	ViewDashboard    View = "Dashboard"
	ViewLogin        View = "Login"
	ViewStats        View = "Stats"
	ViewCompensatory View = "Compensatory"
)

// Route maps an entry path to the view rendered for it.
type Route struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	View View   `json:"view" yaml:"view"`
}

// Table returns the client's routing table. Root is also where an expired
// session lands.
func Table() []Route {
	return []Route{
		{Name: "Dashboard", Path: "/", View: ViewDashboard},
		{Name: "Login", Path: "/login", View: ViewLogin},
		{Name: "Stats", Path: "/stats", View: ViewStats},
		{Name: "Compensatory", Path: "/compensatory", View: ViewCompensatory},
	}
}

// Register adds every route of the table to r, served by h.
func Register(r *mux.Router, h http.Handler) {
	for _, rt := range Table() {
		r.Handle(rt.Path, h).Methods(http.MethodGet, http.MethodHead).Name(rt.Name)
	}
}

// Resolve returns the route whose path matches p exactly.
func Resolve(p string) (Route, bool) {
	r := mux.NewRouter()
	Register(r, http.NotFoundHandler())

	req, err := http.NewRequest(http.MethodGet, p, nil)
	if err != nil {
		return Route{}, false
	}

	var match mux.RouteMatch
	if !r.Match(req, &match) || match.Route == nil {
		return Route{}, false
	}
	name := match.Route.GetName()
	for _, rt := range Table() {
		if rt.Name == name {
			return rt, true
		}
	}
	return Route{}, false
}
