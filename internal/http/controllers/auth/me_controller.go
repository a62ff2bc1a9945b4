package auth

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/talkauth/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/talkauth/internal/http/errors"
	mw "github.com/dropDatabas3/talkauth/internal/http/middlewares"
)

// MeController handles GET /api/v1/auth.
type MeController struct{}

func NewMeController() *MeController { return &MeController{} }

// Me devuelve la identidad y el token del request. Requiere RequireAuth antes.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, tok := mw.GetIdentity(ctx), mw.GetToken(ctx)
	if u == nil || tok == nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("auth middleware not applied"))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.MeResponse{
		User:      u,
		Token:     tok.Raw,
		ExpiresAt: tok.ExpiresAt(),
		PAT:       tok.IsPAT(),
	})
}
