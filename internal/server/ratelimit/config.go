package ratelimit

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// HealthPath is exempt from rate limiting.
const HealthPath = "/api/health"

// Defaults used by LoadConfig.
const (
	DefaultLimit             = 600
	DefaultWindow            = time.Minute
	DefaultCleanupInterval   = 5 * time.Minute
	DefaultGeneratePerMinute = 20
)

// EndpointConfig is the limit of one endpoint.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends in "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // bucket capacity, Limit when 0
}

func (e EndpointConfig) String() string {
	s := fmt.Sprintf("%s %s %d/%s", e.Method, e.Path, e.Limit, e.Window)
	if e.Burst > 0 {
		s += " burst=" + strconv.Itoa(e.Burst)
	}
	return s
}

// LoadConfig reads the limiter configuration from RATE_LIMIT_* variables.
// RATE_LIMIT_RULES holds extra endpoint rules in ParseRules syntax; they take
// precedence over the built-in ones.
func LoadConfig() (*Config, error) {
	var env envReader
	cfg := &Config{Enabled: env.getBool("RATE_LIMIT_ENABLED", true)}
	if !cfg.Enabled {
		return cfg, env.err
	}
	cfg.DefaultLimit = env.getInt("RATE_LIMIT_DEFAULT_LIMIT", DefaultLimit)
	cfg.DefaultWindow = env.getDuration("RATE_LIMIT_DEFAULT_WINDOW", DefaultWindow)
	cfg.CleanupInterval = env.getDuration("RATE_LIMIT_CLEANUP_INTERVAL", DefaultCleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	perMinute := env.getInt("RATE_LIMIT_GENERATE_PER_MINUTE", DefaultGeneratePerMinute)
	if env.err != nil {
		return nil, env.err
	}

	overrides, err := ParseRules(os.Getenv("RATE_LIMIT_RULES"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RULES: %w", err)
	}
	cfg.EndpointConfigs = append(overrides, DefaultEndpointConfigs(perMinute)...)
	return cfg, nil
}

// DefaultEndpointConfigs returns the built-in endpoint limits. generatePerMinute
// bounds each generation endpoint.
func DefaultEndpointConfigs(generatePerMinute int) []EndpointConfig {
	gen := func(path string) EndpointConfig {
		return EndpointConfig{Path: path, Method: http.MethodPost, Limit: generatePerMinute, Window: time.Minute, Burst: 5}
	}
	return []EndpointConfig{
		gen("/api/generate"),
		gen("/api/generate/stream"),
		gen("/api/me/generate"),
		{Path: "/api/me/profile", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 2},
		{Path: "/api/score", Method: http.MethodPost, Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/auth/", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/api/me/posts", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/me/posts/", Method: http.MethodDelete, Limit: 100, Window: time.Minute, Burst: 10},
	}
}

// ParseRules parses semicolon-separated rules of the form
//
//	METHOD PATH LIMIT/WINDOW [burst=N]
//
// for example "POST /api/generate 10/1m burst=2; DELETE /api/me/posts/ 50/1h".
func ParseRules(s string) ([]EndpointConfig, error) {
	var rules []EndpointConfig
	for _, raw := range strings.Split(s, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		rule, err := parseRule(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", raw, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseRule(s string) (EndpointConfig, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 || len(fields) > 4 {
		return EndpointConfig{}, fmt.Errorf("want METHOD PATH LIMIT/WINDOW [burst=N]")
	}
	rule := EndpointConfig{Method: strings.ToUpper(fields[0]), Path: fields[1]}
	if !strings.HasPrefix(rule.Path, "/") {
		return rule, fmt.Errorf("path must start with /")
	}

	limit, window, ok := strings.Cut(fields[2], "/")
	if !ok {
		return rule, fmt.Errorf("rate %q has no window", fields[2])
	}
	var err error
	if rule.Limit, err = strconv.Atoi(limit); err != nil || rule.Limit < 1 {
		return rule, fmt.Errorf("invalid limit %q", limit)
	}
	if rule.Window, err = time.ParseDuration(window); err != nil || rule.Window <= 0 {
		return rule, fmt.Errorf("invalid window %q", window)
	}

	if len(fields) == 4 {
		v, found := strings.CutPrefix(fields[3], "burst=")
		if !found {
			return rule, fmt.Errorf("unexpected %q", fields[3])
		}
		if rule.Burst, err = strconv.Atoi(v); err != nil || rule.Burst < 1 {
			return rule, fmt.Errorf("invalid burst %q", v)
		}
	}
	return rule, nil
}

// envReader reads typed variables and keeps the first parse error.
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && v != "" && r.err == nil
}

func (r *envReader) getInt(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = fmt.Errorf("invalid %s: %q", key, v)
		return def
	}
	return n
}

func (r *envReader) getBool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = fmt.Errorf("invalid %s: %q", key, v)
		return def
	}
	return b
}

func (r *envReader) getDuration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = fmt.Errorf("invalid %s: %q", key, v)
		return def
	}
	return d
}

func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
