// Package revocation mantiene la blacklist de tokens revocados (logout) y
// delega la validez de personal access tokens a su propio colaborador.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/talkauth/internal/cache"
	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/jwt"
)

// KeyPrefix namespacea las keys de revocación en el store compartido.
const KeyPrefix = "jtir:"

var (
	// ErrTokenRevoked el jti está en la blacklist.
	ErrTokenRevoked = errors.New("token was revoked")

	// ErrInvalidPAT el personal access token no existe o fue desactivado.
	ErrInvalidPAT = errors.New("personal access token is not active")

	// ErrStoreUnavailable el store no respondió. Nunca se interpreta como "no revocado".
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)

// Store es la blacklist de jti. Cada registro vive lo mismo que le quedaba al
// token, así el store se poda solo.
type Store struct {
	cache cache.Client
	pats  repository.PATRepository
	now   func() time.Time
}

// New construye el store. pats puede ser nil si no hay PATs en el despliegue:
// en ese caso todo token marcado como PAT se rechaza.
func New(c cache.Client, pats repository.PATRepository) *Store {
	return &Store{cache: c, pats: pats, now: time.Now}
}

func key(jti string) string { return KeyPrefix + jti }

// Revoke agrega jti a la blacklist con TTL = expiresAt - now, sin redondear:
// un token con menos de un segundo de vida sigue siendo válido y tiene que
// quedar revocado. Es idempotente: una segunda revocación no pisa el
// timestamp original. Si el token ya expiró no hay nada que guardar.
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("revocation: empty jti")
	}
	now := s.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if _, err := s.cache.SetNX(ctx, key(jti), now.UTC().Format(time.RFC3339), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked consulta la blacklist. Un positivo es autoritativo.
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ok, err := s.cache.Exists(ctx, key(jti))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ok, nil
}

// CheckBlacklist: los PAT tienen un ciclo de vida externo y no comparten el
// namespace de logout, así que se validan contra su colaborador (sub + jti).
// El resto de los tokens se buscan en la blacklist.
func (s *Store) CheckBlacklist(ctx context.Context, c *jwt.Claims) error {
	if c.PAT {
		if s.pats == nil {
			return ErrInvalidPAT
		}
		active, err := s.pats.IsActive(ctx, c.Subject, c.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !active {
			return ErrInvalidPAT
		}
		return nil
	}

	revoked, err := s.IsRevoked(ctx, c.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}
