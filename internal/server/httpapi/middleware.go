package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// BearerAuth validates the "Authorization: Bearer <token>" header and puts
// the account id into the request context.
func BearerAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeMessage(w, http.StatusUnauthorized, "authorization header required")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			accountID, err := auth.GetAccountIDFromToken(token, secret)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountIDFromContext returns the id stored by BearerAuth.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}

// requestLogger writes one structured line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
