package ratelimit

import "strings"

// MatchEndpoint returns the configuration for method path, or nil when the
// default limit applies. Exact paths win over prefix rules (paths ending in
// "/"); the health check is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == HealthPath && method == "GET" {
		return &EndpointConfig{Path: HealthPath, Method: method}
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
