package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/talkauth/internal/attempts"
	"github.com/dropDatabas3/talkauth/internal/challenge"
	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/metrics"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	StrategyLocal = "local"

	maxLoginBodySize = 64 * 1024
)

// ChallengeVerifier confirma una respuesta de challenge.
type ChallengeVerifier interface {
	Verify(ctx context.Context, req challenge.Request) (bool, error)
}

// LoginInput credenciales del form de login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ParseLoginInput lee email/password de un body JSON o form-urlencoded.
// Un body ilegible equivale a no presentar credenciales.
func ParseLoginInput(w http.ResponseWriter, r *http.Request) LoginInput {
	var in LoginInput
	if r.Body == nil {
		return in
	}
	if w != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	}
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return LoginInput{}
		}
	default:
		if err := r.ParseForm(); err != nil {
			return LoginInput{}
		}
		in.Email = r.PostFormValue("email")
		in.Password = r.PostFormValue("password")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// LocalStrategy autentica email + password. Todo el estado vive en el
// tracker y el store de usuarios.
type LocalStrategy struct {
	Users     repository.UserRepository
	Tracker   *attempts.Tracker
	Verifier  ChallengeVerifier
	Validator *LoginValidator
	Metrics   *metrics.Auth

	// ChallengesEnabled habilita reCAPTCHA. Apagado, el header de challenge
	// se ignora y el umbral de la ventana rechaza con AttemptLimitExceeded.
	ChallengesEnabled bool

	// TrustProxy toma la IP del cliente de X-Forwarded-For al verificar el
	// challenge. Solo con un proxy propio delante.
	TrustProxy bool
}

func (s *LocalStrategy) Name() string { return StrategyLocal }

// ChallengeRequest arma la respuesta de challenge del request.
func (s *LocalStrategy) ChallengeRequest(r *http.Request) challenge.Request {
	return challenge.FromHTTP(r, s.TrustProxy)
}

// Authenticate lee las credenciales del request (ver ParseLoginInput).
func (s *LocalStrategy) Authenticate(ctx context.Context, r *http.Request) (Result, error) {
	return s.Login(ctx, ParseLoginInput(nil, r), s.ChallengeRequest(r))
}

// Login corre la máquina de estados del login local:
// input → challenge → ventana → usuario → flag → password → limpiar flag → validación final.
func (s *LocalStrategy) Login(ctx context.Context, in LoginInput, ch challenge.Request) (Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.local"), logger.Op("Login"))

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return rejected(ReasonNoCredentials), nil
	}
	log = log.With(logger.Email(email))

	// Challenge presente: se verifica antes de mirar la ventana. Un challenge
	// rechazado cuenta como intento fallido aunque el email no exista.
	challengePassed := false
	if s.ChallengesEnabled && ch.Present() {
		ok, err := s.Verifier.Verify(ctx, ch)
		if err != nil {
			s.Metrics.Challenge("error")
			log.Warn("challenge verification unavailable", logger.Err(err))
			return Result{}, err
		}
		if !ok {
			s.Metrics.Challenge("failed")
			if err := s.recordFailure(ctx, log, email, attempts.RecordOptions{}); err != nil {
				return Result{}, err
			}
			return rejected(ReasonChallengeFailed), nil
		}
		s.Metrics.Challenge("passed")
		challengePassed = true
	}

	// Sin challenge verificado: si la ventana ya está llena se rechaza, y el
	// intento se registra igual para que el registro no quede viejo.
	if !challengePassed {
		err := s.Tracker.CheckAttempts(ctx, email)
		if errors.Is(err, attempts.ErrAttemptLimitExceeded) {
			if err := s.recordFailure(ctx, log, email, attempts.RecordOptions{}); err != nil {
				return Result{}, err
			}
			if s.ChallengesEnabled {
				return rejected(ReasonChallengeRequired), nil
			}
			return rejected(ReasonAttemptLimitExceeded), nil
		}
		if err != nil {
			return Result{}, err
		}
	}

	u, err := s.Users.FindLocalUser(ctx, email)
	if err != nil {
		if !repository.IsNotFound(err) {
			log.Error("identity lookup failed", logger.Err(err))
			return Result{}, err
		}
		log.Debug("unknown email")
		if err := s.recordFailure(ctx, log, email, attempts.RecordOptions{}); err != nil {
			return Result{}, err
		}
		return rejected(ReasonInvalidCredentials), nil
	}
	log = log.With(logger.UserID(u.ID))

	flagged := false
	if s.ChallengesEnabled {
		if p := u.LocalProfile(email); p != nil {
			flagged = p.Metadata.ChallengeRequired
		}
	}

	// Cuenta marcada: sin challenge verificado no se llega al password.
	if flagged && !challengePassed {
		if err := s.recordFailure(ctx, log, email, attempts.RecordOptions{KnownIdentity: true, Flagged: true}); err != nil {
			return Result{}, err
		}
		return rejected(ReasonChallengeRequired), nil
	}

	ok, err := s.Users.VerifyPassword(ctx, u, in.Password)
	if err != nil {
		log.Error("password verification failed", logger.Err(err))
		return Result{}, err
	}
	if !ok {
		if err := s.recordFailure(ctx, log, email, attempts.RecordOptions{KnownIdentity: true, Flagged: flagged}); err != nil {
			return Result{}, err
		}
		return rejected(ReasonInvalidCredentials), nil
	}

	// Login exitoso: es la única forma de levantar el flag.
	if flagged {
		if err := s.Tracker.SetChallengeRequirement(ctx, email, false); err != nil {
			return Result{}, err
		}
		s.Metrics.FlagCleared()
		log.Info("challenge requirement cleared")
	}
	if err := s.Tracker.Reset(ctx, email); err != nil {
		return Result{}, err
	}

	rj, err := s.Validator.Validate(ctx, u, &types.LoginProfile{ID: email, Provider: types.ProviderLocal})
	if err != nil {
		return Result{}, err
	}
	if rj != nil {
		return Result{Rejection: rj}, nil
	}
	return Result{Identity: u}, nil
}

// recordFailure registra el intento. Cruzar el umbral no cambia la respuesta
// externa; una falla del store sí se propaga.
func (s *LocalStrategy) recordFailure(ctx context.Context, log *zap.Logger, email string, opts attempts.RecordOptions) error {
	err := s.Tracker.RecordFailedAttempt(ctx, email, opts)
	if err == nil || errors.Is(err, attempts.ErrAttemptLimitExceeded) {
		s.Metrics.FailedAttempt()
		return nil
	}
	log.Error("failed to record login attempt", logger.Err(err))
	return err
}
