package startup

import (
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"movie-indexer/internal/logging"
)

// RouteInfo is one method/path pair registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every route of router in registration order. Routes
// without a method matcher are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the route count and, at debug, every route grouped
// by its first path segment.
func LogHTTPRoutes(router *mux.Router) {
	section("HTTP SERVER")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  Walking routes: %v", err)
	}
	logging.Info("  Registered routes: %d", len(routes))
	if !logging.IsDebugEnabled() {
		return
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routeGroup(routes[i].Path) < routeGroup(routes[j].Path)
	})
	current := "\x00"
	for _, r := range routes {
		if g := routeGroup(r.Path); g != current {
			current = g
			if g == "" {
				g = "root"
			}
			logging.Debug("  [%s]", g)
		}
		logging.Debug("    %-6s %s", r.Method, r.Path)
	}
}

// routeGroup returns the first path segment, or the first two below /api.
func routeGroup(path string) string {
	segments := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if segments[0] == "api" && len(segments) > 1 {
		return "api/" + segments[1]
	}
	return segments[0]
}
