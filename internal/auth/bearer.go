package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/jwt"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
	"github.com/dropDatabas3/talkauth/internal/revocation"
)

const (
	StrategyBearer = "bearer"

	// DefaultCookieName es la cookie que transporta el token de sesión.
	DefaultCookieName = "authorization"
)

// Blacklist es lo que la estrategia bearer necesita del store de revocación.
type Blacklist interface {
	CheckBlacklist(ctx context.Context, c *jwt.Claims) error
}

// IdentityResolver crea la identidad de un token cuyo subject todavía no
// existe (ej: integraciones que emiten tokens para usuarios externos).
// Devuelve (nil, nil) si no sabe resolver el token.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, tok *jwt.Token) (*types.Identity, error)
}

// ExtractToken busca el token en la cookie y, si no está, en el header
// Authorization con esquema Bearer. La cookie tiene precedencia.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if c, err := r.Cookie(cookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// BearerStrategy autentica requests que presentan un token de sesión o PAT.
// Nunca toca el contador de intentos.
type BearerStrategy struct {
	Codec      *jwt.Codec
	Blacklist  Blacklist
	Users      repository.UserRepository
	Validator  *LoginValidator
	Resolvers  []IdentityResolver
	CookieName string
}

func (s *BearerStrategy) Name() string { return StrategyBearer }

func (s *BearerStrategy) Authenticate(ctx context.Context, r *http.Request) (Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.bearer"), logger.Op("Authenticate"))

	raw := ExtractToken(r, s.CookieName)
	if raw == "" {
		return rejected(ReasonNoCredentials), nil
	}

	tok, err := s.Codec.Verify(raw)
	if err != nil {
		log.Debug("token verification failed", logger.Err(err))
		rj := reject(ReasonInvalidToken)
		rj.Message = tokenErrorMessage(err)
		return Result{Rejection: rj}, nil
	}
	log = log.With(logger.JTI(tok.ID()), logger.UserID(tok.Subject()))

	if err := s.Blacklist.CheckBlacklist(ctx, tok.Claims); err != nil {
		switch {
		case errors.Is(err, revocation.ErrTokenRevoked):
			return rejected(ReasonTokenRevoked), nil
		case errors.Is(err, revocation.ErrInvalidPAT):
			return rejected(ReasonInvalidPAT), nil
		default:
			log.Error("blacklist check failed", logger.Err(err))
			return Result{}, err
		}
	}

	u, err := s.findOrCreate(ctx, tok)
	if err != nil {
		return Result{}, err
	}
	if u == nil {
		log.Info("token subject not found")
		rj := reject(ReasonInvalidToken)
		rj.Message = "user not found"
		return Result{Rejection: rj}, nil
	}

	rj, err := s.Validator.Validate(ctx, u, nil)
	if err != nil {
		return Result{}, err
	}
	if rj != nil {
		return Result{Rejection: rj}, nil
	}
	return Result{Identity: u, Token: tok}, nil
}

// findOrCreate busca el subject y, si no existe, prueba los resolvers en
// orden. Si otra request creó la identidad en paralelo, se relee.
func (s *BearerStrategy) findOrCreate(ctx context.Context, tok *jwt.Token) (*types.Identity, error) {
	u, err := s.Users.FindByID(ctx, tok.Subject())
	if err == nil {
		return u, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("auth: find identity: %w", err)
	}

	for _, res := range s.Resolvers {
		nu, err := res.ResolveIdentity(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("auth: resolve identity: %w", err)
		}
		if nu == nil {
			continue
		}
		if nu.ID != tok.Subject() {
			return nil, fmt.Errorf("auth: resolver returned identity %q for subject %q", nu.ID, tok.Subject())
		}
		if err := s.Users.Create(ctx, nu); err != nil {
			if !repository.IsConflict(err) {
				return nil, fmt.Errorf("auth: create identity: %w", err)
			}
			return s.Users.FindByID(ctx, tok.Subject())
		}
		return nu, nil
	}
	return nil, nil
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrWrongIssuer), errors.Is(err, jwt.ErrWrongAudience):
		return "token not valid for this service"
	case errors.Is(err, jwt.ErrMalformed), errors.Is(err, jwt.ErrMissingClaims):
		return "malformed token"
	default:
		return "invalid token"
	}
}
