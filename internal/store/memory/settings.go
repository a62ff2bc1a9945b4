package memory

import (
	"context"
	"sync/atomic"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
)

// Settings es un SettingsRepository estático, configurable en runtime.
type Settings struct {
	requireConfirmation atomic.Bool
}

var _ repository.SettingsRepository = (*Settings)(nil)

func NewSettings(requireEmailConfirmation bool) *Settings {
	s := &Settings{}
	s.requireConfirmation.Store(requireEmailConfirmation)
	return s
}

func (s *Settings) RequireEmailConfirmation(context.Context) (bool, error) {
	return s.requireConfirmation.Load(), nil
}

func (s *Settings) SetRequireEmailConfirmation(v bool) { s.requireConfirmation.Store(v) }
