package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	Log(ctx, LoginRejected, logger.Email("bob@example.com"), logger.Reason("invalid_credentials"))

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, "audit", e.LoggerName)
	require.Equal(t, "login.rejected", e.Message)
	fields := e.ContextMap()
	require.Equal(t, "login.rejected", fields["event"])
	require.Equal(t, "b…@e….com", fields["email"])
	require.Equal(t, "invalid_credentials", fields["reason"])
}
