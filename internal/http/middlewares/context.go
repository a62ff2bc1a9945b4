// Package middlewares contiene los decoradores HTTP del servicio: request id,
// logging, recover, no-store, métricas y autenticación bearer.
package middlewares

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/talkauth/internal/auth"
	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/jwt"
)

// Middleware es un decorador de http.Handler. Es compatible con chi.Router.Use.
type Middleware func(http.Handler) http.Handler

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxAuthKey      ctxKey = "auth_result"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithAuthResult inyecta el resultado de una autenticación exitosa.
func WithAuthResult(ctx context.Context, res auth.Result) context.Context {
	return context.WithValue(ctx, ctxAuthKey, res)
}

// GetRequestID retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// GetIdentity obtiene la identidad autenticada, o nil si RequireAuth no corrió.
func GetIdentity(ctx context.Context) *types.Identity {
	if res, ok := ctx.Value(ctxAuthKey).(auth.Result); ok {
		return res.Identity
	}
	return nil
}

// GetToken obtiene el token verificado del request, o nil.
func GetToken(ctx context.Context) *jwt.Token {
	if res, ok := ctx.Value(ctxAuthKey).(auth.Result); ok {
		return res.Token
	}
	return nil
}
