// Package jwt firma y verifica los tokens de sesión (HS256).
//
// El algoritmo está fijado: el verificador rechaza cualquier token cuyo header
// declare otro alg (none, RS256, HS512...), aunque la firma "cierre".
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Algorithm es el único algoritmo aceptado.
const Algorithm = "HS256"

var (
	ErrMalformed        = errors.New("jwt: malformed token")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	ErrExpired          = errors.New("jwt: token expired")
	ErrWrongIssuer      = errors.New("jwt: wrong issuer")
	ErrWrongAudience    = errors.New("jwt: wrong audience")
	ErrMissingClaims    = errors.New("jwt: missing sub or jti")
)

// Claims: {sub, jti, iss, aud, exp} + marca opcional de personal access token.
type Claims struct {
	PAT bool `json:"pat,omitempty"`
	jwtv5.RegisteredClaims
}

// Token lleva la representación cruda junto a las claims parseadas: la cruda
// sirve para lookups de tokens persistidos, las claims para el cálculo de expiración.
type Token struct {
	Raw    string
	Claims *Claims
}

func (t *Token) Subject() string { return t.Claims.Subject }
func (t *Token) ID() string      { return t.Claims.ID }
func (t *Token) IsPAT() bool     { return t.Claims.PAT }

// ExpiresAt devuelve exp, o el zero time si el token no tiene exp.
func (t *Token) ExpiresAt() time.Time {
	if t.Claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.Claims.ExpiresAt.Time
}

// Remaining devuelve la vida útil restante respecto de now (nunca negativa).
func (t *Token) Remaining(now time.Time) time.Duration {
	d := t.ExpiresAt().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Config parámetros de proceso para emitir/verificar.
type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	Expiry   time.Duration
}

// Codec emite y verifica tokens. Es inmutable y seguro para uso concurrente.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec valida la configuración y construye el codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: empty secret")
	}
	if cfg.Expiry <= 0 {
		return nil, errors.New("jwt: expiry must be positive")
	}
	return &Codec{cfg: cfg, now: time.Now}, nil
}

// WithClock devuelve una copia del codec con otro reloj (tests/CLI).
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Expiry devuelve el TTL configurado para tokens de sesión.
func (c *Codec) Expiry() time.Duration { return c.cfg.Expiry }

// Issue emite un token de sesión para el subject con un jti aleatorio nuevo.
func (c *Codec) Issue(subject string) (*Token, error) {
	now := c.now().UTC()
	return c.Sign(&Claims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			Audience:  jwtv5.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(c.cfg.Expiry)),
		},
	})
}

// Sign firma claims arbitrarias con el secreto del proceso. Issue es el camino
// normal; Sign existe para emitir PATs y para herramientas de operación.
func (c *Codec) Sign(claims *Claims) (*Token, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	raw, err := tk.SignedString(c.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("jwt: sign: %w", err)
	}
	return &Token{Raw: raw, Claims: claims}, nil
}

// Verify valida firma, alg, iss, aud y exp. Un token con iss/aud incorrectos se
// rechaza aunque no haya expirado.
func (c *Codec) Verify(raw string) (*Token, error) {
	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(raw, claims, c.keyfunc,
		jwtv5.WithValidMethods([]string{Algorithm}),
		jwtv5.WithIssuer(c.cfg.Issuer),
		jwtv5.WithAudience(c.cfg.Audience),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrMissingClaims
	}
	return &Token{Raw: raw, Claims: claims}, nil
}

func (c *Codec) keyfunc(t *jwtv5.Token) (any, error) {
	if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok || t.Method.Alg() != Algorithm {
		return nil, fmt.Errorf("unexpected alg %v", t.Header["alg"])
	}
	return c.cfg.Secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed), errors.Is(err, jwtv5.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwtv5.ErrTokenInvalidIssuer):
		return ErrWrongIssuer
	case errors.Is(err, jwtv5.ErrTokenInvalidAudience):
		return ErrWrongAudience
	default:
		// firma inválida, alg no permitido o keyfunc rechazó
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
}
