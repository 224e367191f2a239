package middleware

import (
	"net/http"

	"railway-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity middleware reads the verified user from the X-User-ID header set
// by the upstream gateway and puts it on the request context. Requests
// without a valid ID are rejected.
func Identity(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				log.Warn("Rejected request with malformed user ID",
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
