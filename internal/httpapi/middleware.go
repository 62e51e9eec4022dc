package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"pkm/internal/pkm"
)

const (
	HeaderOwner   = "X-Owner-ID"
	HeaderPersona = "X-Persona"
)

type ownerKey struct{}

// requireOwner rejects /v1 requests without an owner id. Authentication is
// left to whatever sits in front of this server.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(HeaderOwner))
		if owner == "" {
			writeErrorBody(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: HeaderOwner + " header is required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ownerKey{}).(string)
	return owner
}

// personaFrom reads the persona from the X-Persona header, falling back to
// the persona query parameter.
func personaFrom(r *http.Request) (pkm.Persona, error) {
	raw := r.Header.Get(HeaderPersona)
	if raw == "" {
		raw = r.URL.Query().Get("persona")
	}
	return pkm.ParsePersona(strings.TrimSpace(raw))
}

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// accessLog logs one line per HTTP request.
func accessLog(logger pkm.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			logger.Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"bytes", ww.bytes,
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
