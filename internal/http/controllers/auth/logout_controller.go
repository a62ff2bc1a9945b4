package auth

import (
	"net/http"

	"github.com/dropDatabas3/talkauth/internal/audit"
	"github.com/dropDatabas3/talkauth/internal/auth"
	httperrors "github.com/dropDatabas3/talkauth/internal/http/errors"
	mw "github.com/dropDatabas3/talkauth/internal/http/middlewares"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// LogoutController revoca el token del request.
type LogoutController struct {
	delivery *auth.Delivery
}

func NewLogoutController(delivery *auth.Delivery) *LogoutController {
	return &LogoutController{delivery: delivery}
}

// Logout maneja DELETE /api/v1/auth. Requiere RequireAuth antes.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tok := mw.GetToken(ctx)
	if tok == nil {
		httperrors.WriteError(w, httperrors.FromRejection(&auth.Rejection{
			Reason:  auth.ReasonNoCredentials,
			Message: auth.ReasonNoCredentials.Message(),
		}))
		return
	}

	if err := c.delivery.Logout(ctx, w, tok); err != nil {
		logger.From(ctx).Warn("logout failed", logger.Op("LogoutController.Logout"), logger.Err(err))
		httperrors.WriteError(w, httperrors.FromAuthError(err))
		return
	}
	audit.Log(ctx, audit.Logout, logger.UserID(tok.Subject()), logger.JTI(tok.ID()))
	w.WriteHeader(http.StatusNoContent)
}
