package auth

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/talkauth/internal/audit"
	"github.com/dropDatabas3/talkauth/internal/auth"
	httperrors "github.com/dropDatabas3/talkauth/internal/http/errors"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

const contentTypeJSON = "application/json; charset=utf-8"

// LoginController maneja el login local.
type LoginController struct {
	engine   *auth.Engine
	local    *auth.LocalStrategy
	delivery *auth.Delivery
}

func NewLoginController(engine *auth.Engine, local *auth.LocalStrategy, delivery *auth.Delivery) *LoginController {
	return &LoginController{engine: engine, local: local, delivery: delivery}
}

// Login maneja POST /api/v1/auth/local. Acepta JSON o form con email y
// password, y el challenge opcional en X-Recaptcha-Response.
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	in := auth.ParseLoginInput(w, r)
	res, err := c.local.Login(ctx, in, c.local.ChallengeRequest(r))
	c.engine.Observe(ctx, c.local.Name(), res, err)
	if err != nil {
		httperrors.WriteError(w, httperrors.FromAuthError(err))
		return
	}
	if res.Rejection != nil {
		audit.Log(ctx, audit.LoginRejected, logger.Email(in.Email), logger.Reason(string(res.Rejection.Reason)))
		httperrors.WriteError(w, httperrors.FromRejection(res.Rejection))
		return
	}

	creds, err := c.delivery.IssueCredentials(w, r, res.Identity)
	if err != nil {
		log.Error("issue credentials failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	audit.Log(ctx, audit.LoginSucceeded, logger.UserID(res.Identity.ID), logger.Bool("cookie", auth.NeedsCookie(r.UserAgent())))
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(creds)
}
