package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/talkauth/internal/attempts"
	"github.com/dropDatabas3/talkauth/internal/auth"
	"github.com/dropDatabas3/talkauth/internal/challenge"
	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/revocation"
	"github.com/dropDatabas3/talkauth/internal/security/password"
)

// errorResponse controla exactamente qué campos ve el cliente.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// WriteError escribe la respuesta JSON del error.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		ProfileID: appErr.ProfileID,
	})
}

var reasonStatus = map[auth.Reason]int{
	auth.ReasonNoCredentials:         http.StatusUnauthorized,
	auth.ReasonInvalidToken:          http.StatusUnauthorized,
	auth.ReasonTokenRevoked:          http.StatusUnauthorized,
	auth.ReasonInvalidPAT:            http.StatusUnauthorized,
	auth.ReasonInvalidCredentials:    http.StatusUnauthorized,
	auth.ReasonChallengeRequired:     http.StatusUnauthorized,
	auth.ReasonChallengeFailed:       http.StatusUnauthorized,
	auth.ReasonAttemptLimitExceeded:  http.StatusTooManyRequests,
	auth.ReasonAccountDisabled:       http.StatusForbidden,
	auth.ReasonEmailNotConfirmed:     http.StatusForbidden,
	auth.ReasonStoreUnavailable:      http.StatusServiceUnavailable,
	auth.ReasonChallengeServiceError: http.StatusServiceUnavailable,
}

// FromRejection traduce un rechazo del motor. El code es el motivo en
// mayúsculas (ej: CHALLENGE_REQUIRED) para que el cliente pueda ramificar.
func FromRejection(rej *auth.Rejection) *AppError {
	status, ok := reasonStatus[rej.Reason]
	if !ok {
		status = http.StatusUnauthorized
	}
	return &AppError{
		Code:       reasonCode(rej.Reason),
		Message:    rej.Message,
		ProfileID:  rej.ProfileID,
		HTTPStatus: status,
		Err:        rej,
	}
}

// FromAuthError traduce una falla del motor. Los datos inconsistentes (hash
// corrupto, perfil ajeno a la identidad) son 500; el resto es una dependencia
// caída y responde 503 con el code del componente que falló.
func FromAuthError(err error) *AppError {
	var reason auth.Reason
	switch {
	case stderrors.Is(err, auth.ErrProfileMismatch),
		stderrors.Is(err, password.ErrMalformedHash),
		stderrors.Is(err, repository.ErrNotFound):
		return ErrInternalServerError.WithCause(err)
	case stderrors.Is(err, challenge.ErrService):
		reason = auth.ReasonChallengeServiceError
	case stderrors.Is(err, revocation.ErrStoreUnavailable),
		stderrors.Is(err, attempts.ErrStoreUnavailable):
		reason = auth.ReasonStoreUnavailable
	default:
		return ErrServiceUnavailable.WithCause(err)
	}
	return &AppError{
		Code:       reasonCode(reason),
		Message:    reason.Message(),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func reasonCode(r auth.Reason) string { return strings.ToUpper(string(r)) }
