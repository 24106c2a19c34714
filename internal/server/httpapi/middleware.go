package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/common"
	"github.com/dmitrijs2005/helpdesk/internal/logging"
	"github.com/dmitrijs2005/helpdesk/internal/server/auth"
	"github.com/dmitrijs2005/helpdesk/internal/server/ratelimit"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	codeUnauthorized    = "UNAUTHORIZED"
	unauthorizedMessage = "invalid or missing session token"
)

type claimsKey struct{}

// ClaimsFromContext returns the session claims stored by RequireSession.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// RequireSession rejects requests without a valid "Authorization: Bearer" token.
func RequireSession(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			token, ok := strings.CutPrefix(header, common.BearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				Error(w, http.StatusUnauthorized, codeUnauthorized, unauthorizedMessage)
				return
			}

			claims, err := auth.ParseToken(strings.TrimSpace(token), secret)
			if err != nil {
				Error(w, http.StatusUnauthorized, codeUnauthorized, unauthorizedMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// clientAddress scopes attempt limiting to the caller. It runs after RealIP,
// which leaves RemoteAddr as a bare IP when a proxy header was present.
func clientAddress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(addr); err == nil {
			addr = host
		}
		if addr != "" {
			r = r.WithContext(ratelimit.WithClient(r.Context(), addr))
		}
		next.ServeHTTP(w, r)
	})
}

// Recorder receives per-request measurements. Implemented by *metrics.Metrics.
type Recorder interface {
	HTTPRequest(method, route string, status int, d time.Duration)
}

// instrument logs and measures every request, labelled by chi route pattern.
func instrument(logger logging.Logger, rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			elapsed := time.Since(start)

			if rec != nil {
				rec.HTTPRequest(r.Method, route, status, elapsed)
			}
			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration", elapsed,
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
