// Package memory implementa los colaboradores de persistencia en memoria.
// Sirve para desarrollo local y tests; no comparte estado entre procesos.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/security/password"
)

// SeedUser describe una identidad local para precargar el store.
type SeedUser struct {
	ID        string   `yaml:"id"`
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	Username  string   `yaml:"username"`
	Roles     []string `yaml:"roles"`
	Disabled  bool     `yaml:"disabled"`
	Confirmed bool     `yaml:"confirmed"`
}

// Users implementa repository.UserRepository.
type Users struct {
	mu     sync.RWMutex
	byID   map[string]*types.Identity
	hashes map[string]string // user id -> PHC argon2id del perfil local
	params password.Params
}

var _ repository.UserRepository = (*Users)(nil)

func NewUsers(params password.Params) *Users {
	return &Users{
		byID:   map[string]*types.Identity{},
		hashes: map[string]string{},
		params: params,
	}
}

// Seed agrega identidades locales, hasheando sus contraseñas.
func (s *Users) Seed(seeds ...SeedUser) error {
	for _, su := range seeds {
		email := normEmail(su.Email)
		if su.ID == "" || email == "" || su.Password == "" {
			return fmt.Errorf("memory: seed user requires id, email and password")
		}
		phc, err := password.Hash(s.params, su.Password)
		if err != nil {
			return fmt.Errorf("memory: hash seed %s: %w", su.ID, err)
		}
		p := types.Profile{ID: email, Provider: types.ProviderLocal}
		if su.Confirmed {
			now := time.Now().UTC()
			p.Metadata.ConfirmedAt = &now
		}
		u := &types.Identity{
			ID:        su.ID,
			Username:  su.Username,
			Roles:     su.Roles,
			Disabled:  su.Disabled,
			Profiles:  []types.Profile{p},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Create(context.Background(), u); err != nil {
			return err
		}
		s.mu.Lock()
		s.hashes[su.ID] = phc
		s.mu.Unlock()
	}
	return nil
}

func (s *Users) FindByID(_ context.Context, id string) (*types.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Users) FindLocalUser(_ context.Context, email string) (*types.Identity, error) {
	email = normEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if u.LocalProfile(email) != nil {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) Create(_ context.Context, u *types.Identity) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("memory: identity without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		return repository.ErrConflict
	}
	c := u.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.byID[u.ID] = c
	return nil
}

func (s *Users) VerifyPassword(_ context.Context, u *types.Identity, plain string) (bool, error) {
	s.mu.RLock()
	phc, ok := s.hashes[u.ID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return password.Verify(plain, phc)
}

func (s *Users) SetChallengeRequired(_ context.Context, email string, required bool) error {
	email = normEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if p := u.LocalProfile(email); p != nil {
			p.Metadata.ChallengeRequired = required
			return nil
		}
	}
	return repository.ErrNotFound
}

// SetDisabled habilita o deshabilita una identidad.
func (s *Users) SetDisabled(id string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Disabled = disabled
	return nil
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
