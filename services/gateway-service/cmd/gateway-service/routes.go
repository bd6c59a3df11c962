package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/md-rashed-zaman/clinicslots/libs/auth"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Identity headers set by the gateway after token verification. Client supplied values
// are always stripped.
const (
	headerAdminID = "X-Admin-Id"
	headerRole    = "X-Role"
)

// rateLimitedPaths are the unauthenticated write endpoints.
var rateLimitedPaths = []string{"/api/v1/public/book", "/api/v1/auth/login"}

type upstreams struct {
	Auth      *url.URL
	Directory *url.URL
	Booking   *url.URL
	Analytics *url.URL
}

func registerRoutes(mux *http.ServeMux, up upstreams, jwtSecret string) {
	authProxy := newProxy(up.Auth)
	directoryProxy := newProxy(up.Directory)
	bookingProxy := newProxy(up.Booking)
	analyticsProxy := newProxy(up.Analytics)

	admin := func(h http.Handler) http.Handler {
		return requireAuth(requireRole(h, auth.RoleAdmin), jwtSecret)
	}

	registerProxy(mux, "/api/v1/auth", authProxy)

	registerProxy(mux, "/api/v1/public/departments", directoryProxy)
	registerProxy(mux, "/api/v1/public/doctors", directoryProxy)
	registerProxy(mux, "/api/v1/public", bookingProxy)

	registerProxy(mux, "/api/v1/admin/departments", admin(directoryProxy))
	registerProxy(mux, "/api/v1/admin/doctors", admin(directoryProxy))
	registerProxy(mux, "/api/v1/admin/reports", admin(analyticsProxy))
	registerProxy(mux, "/api/v1/admin", admin(bookingProxy))
}

func newProxy(target *url.URL) *httputil.ReverseProxy {
	p := httputil.NewSingleHostReverseProxy(target)
	p.Transport = otelhttp.NewTransport(http.DefaultTransport)
	return p
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func requireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(headerAdminID)
		r.Header.Del(headerRole)

		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "MissingToken", "missing or invalid Authorization header")
			return
		}
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "InvalidToken", "invalid token")
			return
		}

		r.Header.Set(headerAdminID, claims.Subject)
		r.Header.Set(headerRole, claims.Role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := allowed[r.Header.Get(headerRole)]; !ok {
			httpx.WriteError(w, http.StatusForbidden, "Forbidden", "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
