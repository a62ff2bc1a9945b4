package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/jwt"
	"github.com/dropDatabas3/talkauth/internal/metrics"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// Revoker es lo que el logout necesita del store de revocación.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// Credentials es la respuesta de un login exitoso.
type Credentials struct {
	User  *types.Identity `json:"user"`
	Token string          `json:"token"`
}

// Delivery emite credenciales para una identidad verificada y revoca el
// token en el logout.
type Delivery struct {
	Codec   *jwt.Codec
	Revoker Revoker
	Cookie  CookieConfig
	Metrics *metrics.Auth
	now     func() time.Time
}

func (d *Delivery) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

// IssueCredentials firma un token nuevo para u. A los clientes Safari/iOS
// también se les setea la cookie de sesión.
func (d *Delivery) IssueCredentials(w http.ResponseWriter, r *http.Request, u *types.Identity) (*Credentials, error) {
	if u == nil {
		return nil, fmt.Errorf("auth: issue credentials without identity")
	}
	tok, err := d.Codec.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}

	if NeedsCookie(r.UserAgent()) {
		http.SetCookie(w, d.Cookie.build(tok.Raw, tok.ExpiresAt(), d.clock()))
		logger.From(r.Context()).Debug("session cookie set", logger.UserID(u.ID), logger.JTI(tok.ID()))
	}
	return &Credentials{User: u, Token: tok.Raw}, nil
}

// Logout revoca el token por el resto de su vida y borra la cookie. Si la
// revocación falla la cookie se conserva: el token sigue siendo válido.
func (d *Delivery) Logout(ctx context.Context, w http.ResponseWriter, tok *jwt.Token) error {
	if tok == nil {
		return fmt.Errorf("auth: logout without token")
	}
	if err := d.Revoker.Revoke(ctx, tok.ID(), tok.ExpiresAt()); err != nil {
		return err
	}
	d.Metrics.Revoked()
	http.SetCookie(w, d.Cookie.deletion())
	logger.From(ctx).Info("token revoked", logger.JTI(tok.ID()), logger.UserID(tok.Subject()))
	return nil
}
