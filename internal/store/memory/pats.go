package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
)

// PATs guarda el estado activo/inactivo de personal access tokens.
type PATs struct {
	mu     sync.RWMutex
	active map[string]bool
}

var _ repository.PATRepository = (*PATs)(nil)

func NewPATs() *PATs { return &PATs{active: map[string]bool{}} }

func patKey(subject, jti string) string { return subject + "\x00" + jti }

// Activate marca (subject, jti) como activo.
func (s *PATs) Activate(subject, jti string) {
	s.mu.Lock()
	s.active[patKey(subject, jti)] = true
	s.mu.Unlock()
}

// Deactivate marca el token como inactivo. Es idempotente.
func (s *PATs) Deactivate(subject, jti string) {
	s.mu.Lock()
	delete(s.active, patKey(subject, jti))
	s.mu.Unlock()
}

func (s *PATs) IsActive(_ context.Context, subject, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[patKey(subject, jti)], nil
}
