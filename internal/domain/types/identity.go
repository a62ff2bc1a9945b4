// Package types contiene los tipos de dominio compartidos por el núcleo de
// autenticación y sus colaboradores de persistencia.
package types

import (
	"strings"
	"time"
)

// ProviderLocal identifica el perfil email/password.
const ProviderLocal = "local"

// Identity es el registro de usuario. Lo persiste un colaborador externo; el
// núcleo solo lee y actualiza el flag de challenge de sus perfiles.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	Disabled  bool      `json:"disabled"`
	Profiles  []Profile `json:"profiles"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile es un método de autenticación vinculado (local o social).
type Profile struct {
	ID       string          `json:"id"`
	Provider string          `json:"provider"`
	Metadata ProfileMetadata `json:"-"`
}

// ProfileMetadata guarda el estado de confirmación y el flag persistente de
// challenge del perfil.
type ProfileMetadata struct {
	ConfirmedAt       *time.Time
	ChallengeRequired bool
}

// LoginProfile describe con qué perfil se está autenticando la identidad.
type LoginProfile struct {
	ID       string
	Provider string
}

// Profile devuelve el perfil con ese id (comparación case-insensitive), o nil.
func (u *Identity) Profile(id string) *Profile {
	if u == nil {
		return nil
	}
	for i := range u.Profiles {
		if strings.EqualFold(u.Profiles[i].ID, id) {
			return &u.Profiles[i]
		}
	}
	return nil
}

// LocalProfile devuelve el perfil local con ese email, o nil.
func (u *Identity) LocalProfile(email string) *Profile {
	p := u.Profile(email)
	if p == nil || p.Provider != ProviderLocal {
		return nil
	}
	return p
}

// Clone devuelve una copia profunda, para que los stores no compartan estado
// mutable con los llamadores.
func (u *Identity) Clone() *Identity {
	if u == nil {
		return nil
	}
	out := *u
	out.Roles = append([]string(nil), u.Roles...)
	out.Profiles = make([]Profile, len(u.Profiles))
	for i, p := range u.Profiles {
		out.Profiles[i] = p
		if p.Metadata.ConfirmedAt != nil {
			t := *p.Metadata.ConfirmedAt
			out.Profiles[i].Metadata.ConfirmedAt = &t
		}
	}
	return &out
}
