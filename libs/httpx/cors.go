package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists the browser origins allowed to call the API. An origin entry may be
// "*" or use a leading wildcard label, as in "https://*.clinic.example".
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsHeaders struct {
	origins     []string
	credentials bool
	static      map[string]string
}

// WithCORS answers preflights and decorates responses for allowed origins. With no
// AllowedOrigins the middleware is a no-op.
func WithCORS(p CORSPolicy) Middleware {
	origins := trimAll(p.AllowedOrigins)
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := corsHeaders{origins: origins, credentials: p.AllowCredentials, static: map[string]string{}}
	setJoined(c.static, "Access-Control-Allow-Methods", p.AllowedMethods)
	setJoined(c.static, "Access-Control-Allow-Headers", p.AllowedHeaders)
	setJoined(c.static, "Access-Control-Expose-Headers", p.ExposedHeaders)
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		c.static["Access-Control-Max-Age"] = strconv.Itoa(secs)
	}
	if p.AllowCredentials {
		c.static["Access-Control-Allow-Credentials"] = "true"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allow := c.allowOrigin(origin)
			if allow == "" {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allow)
			for k, v := range c.static {
				h.Set(k, v)
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or "".
// Credentialed responses never carry "*".
func (c corsHeaders) allowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	for _, o := range c.origins {
		switch {
		case o == "*":
			if c.credentials {
				return origin
			}
			return "*"
		case strings.EqualFold(o, origin):
			return origin
		case wildcardMatch(o, origin):
			return origin
		}
	}
	return ""
}

func wildcardMatch(pattern, origin string) bool {
	scheme, host, ok := strings.Cut(pattern, "://*.")
	if !ok {
		return false
	}
	prefix := scheme + "://"
	if !strings.HasPrefix(strings.ToLower(origin), strings.ToLower(prefix)) {
		return false
	}
	rest := origin[len(prefix):]
	return len(rest) > len(host)+1 && strings.HasSuffix(strings.ToLower(rest), "."+strings.ToLower(host))
}

func setJoined(dst map[string]string, key string, values []string) {
	if v := strings.Join(trimAll(values), ", "); v != "" {
		dst[key] = v
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
