package gateway

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"servicedeck/pkg/config"
)

// Route forwards every path under Prefix to Upstream with the prefix removed.
type Route struct {
	Name     string
	Prefix   string
	Upstream *url.URL
}

// Strip removes the route prefix from path. An empty remainder becomes "/".
func (r Route) Strip(path string) string {
	rest := strings.TrimPrefix(path, r.Prefix)
	if rest == "" {
		return "/"
	}
	return rest
}

// Matches reports whether path falls under the prefix on a segment boundary.
func (r Route) Matches(path string) bool {
	return path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/")
}

// RouteTable is the fixed, ordered prefix table of the gateway.
type RouteTable struct {
	routes  []Route
	longest []Route
}

func NewRouteTable(entries []config.Route) (*RouteTable, error) {
	routes := make([]Route, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		prefix := strings.TrimRight(entry.Prefix, "/")
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route %s: %w: %q", entry.Name, ErrInvalidPrefix, entry.Prefix)
		}
		if _, ok := seen[prefix]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePrefix, prefix)
		}
		seen[prefix] = struct{}{}

		upstream, err := url.Parse(entry.Upstream)
		if err != nil || (upstream.Scheme != "http" && upstream.Scheme != "https") || upstream.Host == "" {
			return nil, fmt.Errorf("route %s: %w: %q", entry.Name, ErrInvalidUpstream, entry.Upstream)
		}

		routes = append(routes, Route{Name: entry.Name, Prefix: prefix, Upstream: upstream})
	}

	longest := make([]Route, len(routes))
	copy(longest, routes)
	sort.SliceStable(longest, func(i, j int) bool {
		return len(longest[i].Prefix) > len(longest[j].Prefix)
	})

	return &RouteTable{routes: routes, longest: longest}, nil
}

// Routes returns the routes in configuration order.
func (t *RouteTable) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Match returns the route with the longest prefix covering path.
func (t *RouteTable) Match(path string) (Route, bool) {
	for _, route := range t.longest {
		if route.Matches(path) {
			return route, true
		}
	}
	return Route{}, false
}
