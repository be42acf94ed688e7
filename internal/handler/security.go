package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shipbridge/internal/domain/auth"
)

// APIKeyHeader carries the operator API key.
const APIKeyHeader = "X-API-Key"

type apiKeyInfoKey struct{}

// APIKeyFromContext returns the authenticated key, or nil.
func APIKeyFromContext(ctx context.Context) *auth.APIKeyInfo {
	info, _ := ctx.Value(apiKeyInfoKey{}).(*auth.APIKeyInfo)
	return info
}

// RequireScope authenticates the X-API-Key header and checks that the key
// holds scope. Unknown keys get 401, keys without the scope get 403.
func RequireScope(a *auth.Authenticator, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			info, err := a.Authenticate(ctx, r.Header.Get(APIKeyHeader))
			if err != nil {
				zctx.From(ctx).Debug("API key rejected", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !info.HasScope(scope) {
				writeError(w, http.StatusForbidden, "api key lacks scope "+scope)
				return
			}
			ctx = context.WithValue(ctx, apiKeyInfoKey{}, info)
			next.ServeHTTP(w, r.WithContext(zctx.With(ctx, zap.String("api_key_id", info.ID))))
		})
	}
}
