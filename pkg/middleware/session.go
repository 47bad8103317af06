package middleware

import (
	"context"
	"net/http"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// SessionIDHeader identifies the shopper whose cart a request acts on.
const SessionIDHeader = "X-Session-ID"

const maxSessionIDLen = 128

// Session requires a well-formed X-Session-ID header and stores it in the
// request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionIDHeader)
		if id == "" {
			writeSessionError(w, r, "missing "+SessionIDHeader+" header")
			return
		}
		if !validSessionID(id) {
			writeSessionError(w, r, "malformed "+SessionIDHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(logger.WithSessionID(r.Context(), id)))
	})
}

// SessionIDFromContext returns the session id stored by Session.
func SessionIDFromContext(ctx context.Context) string {
	return logger.SessionIDFromContext(ctx)
}

// validSessionID accepts 1..128 characters of [A-Za-z0-9._-].
func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

func writeSessionError(w http.ResponseWriter, r *http.Request, msg string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:      "MISSING_SESSION",
			Message:   msg,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}
