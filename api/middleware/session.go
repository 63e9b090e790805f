package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// Session resolves the cart session id from the request, minting one for
// first-time visitors. The id is echoed back so the storefront can keep
// sending it.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(sessionIDHeader)
			minted := sessionID == ""
			if minted {
				sessionID = uuid.NewString()
			}

			w.Header().Set(sessionIDHeader, sessionID)

			ctx := context.WithValue(r.Context(), ctxSessionID, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
				if minted {
					logg.Debug(ctx, "minted cart session")
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
