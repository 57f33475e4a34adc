package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route is one registered method and pattern.
type Route struct {
	Method  string
	Pattern string
}

// Routes lists the registered routes sorted by pattern, then method.
func (s *Server) Routes() ([]Route, error) {
	var out []Route
	walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = strings.ReplaceAll(route, "/*/", "/")
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		out = append(out, Route{Method: method, Pattern: route})
		return nil
	}
	if err := chi.Walk(s.router, walk); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out, nil
}
