package repository

import (
	"context"

	"github.com/dropDatabas3/talkauth/internal/domain/types"
)

// UserRepository es el colaborador de persistencia de identidades.
type UserRepository interface {
	// FindByID busca una identidad por id. Retorna ErrNotFound si no existe.
	FindByID(ctx context.Context, id string) (*types.Identity, error)

	// FindLocalUser busca la identidad dueña del perfil local con ese email
	// (ya normalizado). Retorna ErrNotFound si no existe.
	FindLocalUser(ctx context.Context, email string) (*types.Identity, error)

	// Create persiste una identidad nueva. Retorna ErrConflict si el id ya existe.
	Create(ctx context.Context, u *types.Identity) error

	// VerifyPassword compara password contra el hash del perfil local.
	// Es intencionalmente lento (argon2id) y no debe cortocircuitarse.
	VerifyPassword(ctx context.Context, u *types.Identity, password string) (bool, error)

	// SetChallengeRequired setea o limpia el flag de challenge del perfil local.
	SetChallengeRequired(ctx context.Context, email string, required bool) error
}

// SettingsRepository expone los settings globales que consume el login.
type SettingsRepository interface {
	RequireEmailConfirmation(ctx context.Context) (bool, error)
}

// PATRepository expone la validez de personal access tokens. El ciclo de vida
// de los PAT lo maneja otro servicio; acá solo se consulta.
type PATRepository interface {
	// IsActive retorna false (sin error) si el token no existe o fue revocado.
	IsActive(ctx context.Context, subject, jti string) (bool, error)
}
