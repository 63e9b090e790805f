package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ruizcommerce/storefront-backend/api/responses"
	pkgerrors "github.com/ruizcommerce/storefront-backend/pkg/errors"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
	"github.com/ruizcommerce/storefront-backend/pkg/redis"
)

// LoginRateLimit throttles credential attempts per client IP using a
// fixed Redis window. A nil client disables the limit (dev without
// Redis).
func LoginRateLimit(client *redis.Client, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("login:%s", clientIP(r))
			allowed, _, err := client.FixedWindowAllow(r.Context(), scope, limit, window)
			if err != nil {
				// Fail open: losing Redis must not lock admins out.
				if logg != nil {
					logg.Warn(r.Context(), "rate limit check failed: "+err.Error())
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
