// Package auth contiene el motor de autenticación: la estrategia bearer
// (token de sesión o PAT), la estrategia local (email + password con rate
// limit y challenge), la validación final compartida y la entrega de
// credenciales.
//
// Los rechazos de autorización viajan como valores en Result; las fallas de
// infraestructura (store, servicio de challenge) se devuelven como error.
package auth

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/jwt"
)

// Reason clasifica un rechazo.
type Reason string

const (
	ReasonNoCredentials         Reason = "no_credentials"
	ReasonInvalidToken          Reason = "invalid_token"
	ReasonTokenRevoked          Reason = "token_revoked"
	ReasonInvalidPAT            Reason = "invalid_pat"
	ReasonStoreUnavailable      Reason = "store_unavailable"
	ReasonAttemptLimitExceeded  Reason = "attempt_limit_exceeded"
	ReasonChallengeRequired     Reason = "challenge_required"
	ReasonChallengeFailed       Reason = "challenge_failed"
	ReasonChallengeServiceError Reason = "challenge_service_error"
	ReasonInvalidCredentials    Reason = "invalid_credentials"
	ReasonAccountDisabled       Reason = "account_disabled"
	ReasonEmailNotConfirmed     Reason = "email_not_confirmed"
)

var defaultMessages = map[Reason]string{
	ReasonNoCredentials:         "missing credentials",
	ReasonInvalidToken:          "invalid token",
	ReasonTokenRevoked:          "token was revoked",
	ReasonInvalidPAT:            "personal access token is not active",
	ReasonStoreUnavailable:      "authentication store unavailable",
	ReasonAttemptLimitExceeded:  "too many failed login attempts",
	ReasonChallengeRequired:     "challenge required",
	ReasonChallengeFailed:       "incorrect challenge response",
	ReasonChallengeServiceError: "challenge verification unavailable",
	ReasonInvalidCredentials:    "email and/or password combination incorrect",
	ReasonAccountDisabled:       "account disabled",
	ReasonEmailNotConfirmed:     "email address not confirmed",
}

// Message devuelve el texto externo por defecto del motivo.
func (r Reason) Message() string {
	if m, ok := defaultMessages[r]; ok {
		return m
	}
	return string(r)
}

// Rejection es un rechazo tipado. ProfileID solo se completa en
// EmailNotConfirmed, para que el cliente pueda pedir el reenvío.
type Rejection struct {
	Reason    Reason `json:"reason"`
	Message   string `json:"message"`
	ProfileID string `json:"profile_id,omitempty"`
}

func (r *Rejection) Error() string { return string(r.Reason) + ": " + r.Message }

func reject(reason Reason) *Rejection {
	return &Rejection{Reason: reason, Message: reason.Message()}
}

// Result es la salida de una estrategia. Exactamente uno de Identity o
// Rejection está presente.
type Result struct {
	Identity *types.Identity
	// Token es el token verificado que autenticó el request (solo bearer).
	Token     *jwt.Token
	Rejection *Rejection
}

// OK indica autenticación exitosa.
func (r Result) OK() bool { return r.Rejection == nil && r.Identity != nil }

func rejected(reason Reason) Result { return Result{Rejection: reject(reason)} }

// Strategy autentica un request.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, r *http.Request) (Result, error)
}
