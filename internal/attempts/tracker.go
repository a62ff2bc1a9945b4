// Package attempts cuenta los logins fallidos por email dentro de una ventana
// que expira sola, y maneja el flag persistente de challenge del perfil.
package attempts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/talkauth/internal/cache"
	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
)

// KeyPrefix namespacea los contadores en el store compartido.
const KeyPrefix = "login_attempts:"

const (
	DefaultThreshold = 5
	DefaultWindow    = 10 * time.Minute
)

var (
	// ErrAttemptLimitExceeded la ventana alcanzó el umbral.
	ErrAttemptLimitExceeded = errors.New("login attempt maximum exceeded")

	// ErrStoreUnavailable el store del contador o el del flag no respondió.
	ErrStoreUnavailable = errors.New("attempt store unavailable")
)

// Flagger persiste el flag "requiere challenge" del perfil local.
type Flagger interface {
	SetChallengeRequired(ctx context.Context, email string, required bool) error
}

// Config parámetros de la ventana.
type Config struct {
	Threshold int
	Window    time.Duration
	// FlagOnExceed permite marcar la cuenta cuando se cruza el umbral.
	// Sin challenges habilitados no hay forma de levantar el flag, así que
	// queda apagado.
	FlagOnExceed bool
}

// RecordOptions acompaña a cada fallo registrado.
type RecordOptions struct {
	// KnownIdentity el email corresponde a una identidad existente.
	// Solo en ese caso se puede setear el flag.
	KnownIdentity bool
	// Flagged la identidad ya estaba marcada.
	Flagged bool
}

// Tracker es stateless: todo el estado vive en el store compartido.
type Tracker struct {
	cache   cache.Client
	flagger Flagger
	cfg     Config
	// OnFlag se invoca cuando una cuenta queda marcada (métricas).
	OnFlag func()
}

func New(c cache.Client, f Flagger, cfg Config) *Tracker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Tracker{cache: c, flagger: f, cfg: cfg}
}

// Threshold retorna el umbral efectivo.
func (t *Tracker) Threshold() int { return t.cfg.Threshold }

// Key retorna la key del contador para un email.
func Key(email string) string {
	return KeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// RecordFailedAttempt incrementa el contador. El incremento siempre ocurre,
// aun cuando el resultado es ErrAttemptLimitExceeded. Si es el cruce del
// umbral para una identidad conocida y no marcada, se setea el flag.
func (t *Tracker) RecordFailedAttempt(ctx context.Context, email string, opts RecordOptions) error {
	log := logger.From(ctx).With(logger.Component("attempts"), logger.Op("RecordFailedAttempt"))

	n, err := t.cache.Incr(ctx, Key(email), t.cfg.Window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if n < int64(t.cfg.Threshold) {
		return nil
	}

	log.Warn("login attempt threshold reached",
		logger.Email(email), logger.Int("count", int(n)), logger.Int("threshold", t.cfg.Threshold))

	if opts.KnownIdentity && !opts.Flagged && t.cfg.FlagOnExceed {
		if err := t.SetChallengeRequirement(ctx, email, true); err != nil {
			return err
		}
		if t.OnFlag != nil {
			t.OnFlag()
		}
		log.Info("account flagged for challenge", logger.Email(email))
	}
	return ErrAttemptLimitExceeded
}

// CheckAttempts es la lectura previa, sin efectos.
func (t *Tracker) CheckAttempts(ctx context.Context, email string) error {
	n, err := t.Count(ctx, email)
	if err != nil {
		return err
	}
	if n >= int64(t.cfg.Threshold) {
		return ErrAttemptLimitExceeded
	}
	return nil
}

// Count retorna los fallos dentro de la ventana vigente.
func (t *Tracker) Count(ctx context.Context, email string) (int64, error) {
	v, err := t.cache.Get(ctx, Key(email))
	if err != nil {
		if cache.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("attempts: corrupt counter for %s: %w", logger.MaskEmail(email), err)
	}
	return n, nil
}

// SetChallengeRequirement setea o limpia el flag persistente. Sobrevive a la
// expiración de la ventana.
func (t *Tracker) SetChallengeRequirement(ctx context.Context, email string, required bool) error {
	if t.flagger == nil {
		return errors.New("attempts: no flag store configured")
	}
	if err := t.flagger.SetChallengeRequired(ctx, email, required); err != nil {
		// la identidad desapareció entre el lookup y el flag
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Reset borra la ventana (login exitoso o limpieza manual).
func (t *Tracker) Reset(ctx context.Context, email string) error {
	if err := t.cache.Delete(ctx, Key(email)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
