// Package audit registra eventos de autenticación en un logger dedicado
// ("audit"), separado del log operativo para poder rutearlo aparte.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

type Event string

const (
	LoginSucceeded Event = "login.succeeded"
	LoginRejected  Event = "login.rejected"
	Logout         Event = "logout"
	TokenRevoked   Event = "token.revoked"
	AttemptsReset  Event = "attempts.reset"
)

// Log escribe el evento con el logger del contexto (request_id incluido).
func Log(ctx context.Context, event Event, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(string(event), append([]zap.Field{zap.String("event", string(event))}, fields...)...)
}
