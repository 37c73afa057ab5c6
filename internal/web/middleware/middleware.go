package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger logs one line per API request, keyed by the matched route pattern
// so that /api/fees/7/payments and /api/fees/9/payments share a key.
// Server errors log at error, client errors at warn, everything else at debug.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log.WithLevel(levelForStatus(status)).
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("API request")
		}()

		next.ServeHTTP(ww, r)
	})
}

func levelForStatus(status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.DebugLevel
	}
}

// routePattern is only complete after the router has matched, so call it
// once the handler returns.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// AllowSubnet rejects requests whose TCP peer is outside allowedNet. A nil
// subnet admits everyone. It reads RemoteAddr, so it must run before RealIP
// rewrites it from forwarding headers.
func AllowSubnet(allowedNet *net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if allowedNet == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := peerIP(r.RemoteAddr); ip == nil || !allowedNet.Contains(ip) {
				log.Warn().
					Str("remote", r.RemoteAddr).
					Str("allowed_subnet", allowedNet.String()).
					Str("route", r.URL.Path).
					Msg("Rejected API request from outside allowed subnet")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peerIP accepts both host:port and bare host forms.
func peerIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}
