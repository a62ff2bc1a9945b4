package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/talkauth/internal/auth"
	httperrors "github.com/dropDatabas3/talkauth/internal/http/errors"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// RequireAuth corre la estrategia bearer y guarda el resultado en el
// contexto. Un rechazo responde 401/403 según el motivo; una falla del store
// responde 503.
func RequireAuth(engine *auth.Engine, bearer auth.Strategy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			res, err := engine.Authenticate(ctx, bearer, r)
			if err != nil {
				httperrors.WriteError(w, httperrors.FromAuthError(err))
				return
			}
			if res.Rejection != nil {
				switch res.Rejection.Reason {
				case auth.ReasonNoCredentials:
					w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				case auth.ReasonInvalidToken, auth.ReasonTokenRevoked, auth.ReasonInvalidPAT:
					w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				}
				httperrors.WriteError(w, httperrors.FromRejection(res.Rejection))
				return
			}

			ctx = WithAuthResult(ctx, res)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(res.Identity.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
