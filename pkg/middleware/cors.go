package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins ("https://shop.flexfit.example") or
	// subdomain patterns ("https://*.flexfit.example"). "*" allows any origin.
	AllowedOrigins []string

	// AllowedMethods defaults to GET, POST, PUT, PATCH, DELETE, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to Accept, Content-Type, X-Correlation-ID and
	// X-Session-ID.
	AllowedHeaders []string

	// ExposedHeaders is the list of headers the browser may read.
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds. Defaults to 3600.
	MaxAge int

	AllowCredentials bool

	// Environment "development" answers every origin with "*".
	Environment string
}

// DefaultCORSConfig returns a permissive configuration for local development
// of the storefront UI.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", CorrelationHeader, SessionHeader},
		ExposedHeaders: []string{CorrelationHeader},
		MaxAge:         3600,
		Environment:    "development",
	}
}

// corsPolicy is a CORSConfig with its header values precomputed.
type corsPolicy struct {
	anyOrigin bool
	exact     map[string]struct{}
	suffixes  []originSuffix

	methods     string
	headers     string
	exposed     string
	maxAge      string
	credentials bool
}

// originSuffix matches "scheme://*.domain" patterns.
type originSuffix struct {
	scheme string
	domain string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = DefaultCORSConfig().AllowedMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = DefaultCORSConfig().AllowedHeaders
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 3600
	}

	p := corsPolicy{
		anyOrigin:   cfg.Environment == "development",
		exact:       make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods:     strings.Join(methods, ", "),
		headers:     strings.Join(headers, ", "),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		maxAge:      strconv.Itoa(maxAge),
		credentials: cfg.AllowCredentials,
	}

	for _, o := range cfg.AllowedOrigins {
		switch {
		case o == "*":
			p.anyOrigin = true
		case strings.Contains(o, "://*."):
			scheme, domain, _ := strings.Cut(o, "://*.")
			p.suffixes = append(p.suffixes, originSuffix{scheme: scheme + "://", domain: "." + domain})
		default:
			p.exact[o] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, s := range p.suffixes {
		host, ok := strings.CutPrefix(origin, s.scheme)
		if ok && strings.HasSuffix(host, s.domain) && len(host) > len(s.domain) {
			return true
		}
	}
	return false
}

// CORS returns middleware that answers preflight requests and sets the
// Cross-Origin Resource Sharing headers described by cfg.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")

			switch {
			case p.anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && p.allows(origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Vary", "Origin")
			}

			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			if p.exposed != "" {
				h.Set("Access-Control-Expose-Headers", p.exposed)
			}
			h.Set("Access-Control-Max-Age", p.maxAge)
			if p.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
