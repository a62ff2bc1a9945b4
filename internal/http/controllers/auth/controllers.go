// Package auth contiene los controllers de login, logout y sesión actual.
package auth

import (
	"github.com/dropDatabas3/talkauth/internal/auth"
)

// Deps agrupa lo que necesitan los controllers de auth.
type Deps struct {
	Engine   *auth.Engine
	Local    *auth.LocalStrategy
	Delivery *auth.Delivery
}

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login  *LoginController
	Logout *LogoutController
	Me     *MeController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(d Deps) *Controllers {
	return &Controllers{
		Login:  NewLoginController(d.Engine, d.Local, d.Delivery),
		Logout: NewLogoutController(d.Delivery),
		Me:     NewMeController(),
	}
}
