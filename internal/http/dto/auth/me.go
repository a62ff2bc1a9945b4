// Package auth contiene DTOs para endpoints de autenticación.
package auth

import (
	"time"

	"github.com/dropDatabas3/talkauth/internal/domain/types"
)

// MeResponse es la respuesta de GET /api/v1/auth: la identidad autenticada
// y el token que la autenticó.
type MeResponse struct {
	User      *types.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	PAT       bool            `json:"pat,omitempty"`
}
