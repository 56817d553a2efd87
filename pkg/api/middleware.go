package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sritchie73/bad-boyz-cluster/pkg/config"
	"github.com/sritchie73/bad-boyz-cluster/pkg/log"
	"github.com/sritchie73/bad-boyz-cluster/pkg/metrics"
)

// statusWriter captures the status code a handler wrote, so the
// logging middleware can report it after the handler has returned.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs and records metrics for every request,
// tagging each with a request id (generated when the caller didn't
// send one).
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		sw.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if tmpl, err := mux.CurrentRoute(r).GetPathTemplate(); err == nil {
			route = tmpl
		}
		duration := time.Since(start)

		metrics.APIRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		reqLogger := log.WithComponent("api")
		reqLogger.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("route", route).
			Int("status", sw.status).
			Dur("duration", duration).
			Msg("request handled")
	})
}

// recoveryMiddleware converts a panicking handler into a 500 response
// instead of crashing the process.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				panicLogger := log.WithComponent("api")
				panicLogger.Error().Interface("panic", rec).Msg("recovered from handler panic")
				writeErrorMsg(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the role an HTTP Basic credential pair
// authenticates as, against the configured role table.
func authenticate(cfg config.Config, r *http.Request) (config.Role, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return "", false
	}
	return cfg.ResolveRole(username, password)
}

// withRole wraps h so it only runs when the request authenticates as
// exactly role.
func withRole(cfg config.Config, role config.Role, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got, ok := authenticate(cfg, r)
		if !ok || got != role {
			w.Header().Set("WWW-Authenticate", `Basic realm="grid"`)
			writeErrorMsg(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h(w, r)
	}
}

// withAnyRole wraps h so it runs for any of the three configured
// roles.
func withAnyRole(cfg config.Config, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authenticate(cfg, r); !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="grid"`)
			writeErrorMsg(w, http.StatusUnauthorized, "authentication required")
			return
		}
		h(w, r)
	}
}
