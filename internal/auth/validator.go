package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/domain/types"
)

// ErrProfileMismatch el perfil de login no pertenece a la identidad.
var ErrProfileMismatch = errors.New("auth: login profile is not on identity")

// LoginValidator es el último paso de todo login (local, bearer o social).
type LoginValidator struct {
	settings repository.SettingsRepository
}

func NewLoginValidator(settings repository.SettingsRepository) *LoginValidator {
	return &LoginValidator{settings: settings}
}

// Validate rechaza cuentas deshabilitadas y, solo para perfiles locales,
// emails sin confirmar cuando el setting global lo exige. lp nil significa
// que no hay perfil de login (bearer) y solo aplica el chequeo de disabled.
func (v *LoginValidator) Validate(ctx context.Context, u *types.Identity, lp *types.LoginProfile) (*Rejection, error) {
	if u == nil {
		return nil, fmt.Errorf("auth: validate: %w", repository.ErrNotFound)
	}
	if u.Disabled {
		return reject(ReasonAccountDisabled), nil
	}
	if lp == nil || lp.Provider != types.ProviderLocal {
		return nil, nil
	}

	required, err := v.settings.RequireEmailConfirmation(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: read settings: %w", err)
	}
	if !required {
		return nil, nil
	}

	p := u.Profile(lp.ID)
	if p == nil {
		return nil, ErrProfileMismatch
	}
	if p.Metadata.ConfirmedAt == nil {
		rj := reject(ReasonEmailNotConfirmed)
		rj.ProfileID = lp.ID
		return rj, nil
	}
	return nil, nil
}

// ValidateSocial corre la validación final sobre el resultado opaco de un
// proveedor social.
func (v *LoginValidator) ValidateSocial(ctx context.Context, u *types.Identity, provider, profileID string) (Result, error) {
	rj, err := v.Validate(ctx, u, &types.LoginProfile{ID: profileID, Provider: provider})
	if err != nil {
		return Result{}, err
	}
	if rj != nil {
		return Result{Rejection: rj}, nil
	}
	return Result{Identity: u}, nil
}
