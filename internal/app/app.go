// Package app arma el grafo de dependencias del núcleo de autenticación a
// partir de la configuración. Lo usan el servicio HTTP y authctl.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/talkauth/internal/attempts"
	"github.com/dropDatabas3/talkauth/internal/auth"
	"github.com/dropDatabas3/talkauth/internal/cache"
	"github.com/dropDatabas3/talkauth/internal/challenge"
	"github.com/dropDatabas3/talkauth/internal/config"
	"github.com/dropDatabas3/talkauth/internal/domain/repository"
	"github.com/dropDatabas3/talkauth/internal/jwt"
	"github.com/dropDatabas3/talkauth/internal/metrics"
	"github.com/dropDatabas3/talkauth/internal/observability/logger"
	"github.com/dropDatabas3/talkauth/internal/revocation"
	"github.com/dropDatabas3/talkauth/internal/security/password"
	"github.com/dropDatabas3/talkauth/internal/store/memory"
	"github.com/dropDatabas3/talkauth/internal/store/pg"
)

// Container agrupa los componentes construidos. PG es nil con el driver memory.
type Container struct {
	Config *config.Config

	Cache    cache.Client
	PG       *pg.Store
	Users    repository.UserRepository
	Settings repository.SettingsRepository
	PATs     repository.PATRepository

	Codec       *jwt.Codec
	Revocations *revocation.Store
	Tracker     *attempts.Tracker
	Verifier    *challenge.Verifier
	Metrics     *metrics.Auth

	Engine   *auth.Engine
	Bearer   *auth.BearerStrategy
	Local    *auth.LocalStrategy
	Delivery *auth.Delivery
}

// New construye el contenedor. reg nil usa el registry default de prometheus.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Container, error) {
	log := logger.From(ctx).With(logger.Component("app"), logger.Op("New"))
	c := &Container{Config: cfg}

	var err error
	c.Cache, err = cache.New(ctx, cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	if err := c.openStorage(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Codec, err = jwt.NewCodec(jwt.Config{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Expiry:   cfg.JWT.Expiry,
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("app: jwt: %w", err)
	}

	c.Metrics, err = metrics.NewAuth(reg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	c.Revocations = revocation.New(c.Cache, c.PATs)
	c.Tracker = attempts.New(c.Cache, c.Users, attempts.Config{
		Threshold:    cfg.Login.AttemptThreshold,
		Window:       cfg.Login.AttemptWindow,
		FlagOnExceed: cfg.Recaptcha.Enabled,
	})
	c.Tracker.OnFlag = c.Metrics.FlagSet
	c.Verifier = challenge.New(challenge.Config{
		Secret:    cfg.Recaptcha.Secret,
		VerifyURL: cfg.Recaptcha.VerifyURL,
		Timeout:   cfg.Recaptcha.Timeout,
	})

	validator := auth.NewLoginValidator(c.Settings)
	c.Bearer = &auth.BearerStrategy{
		Codec:      c.Codec,
		Blacklist:  c.Revocations,
		Users:      c.Users,
		Validator:  validator,
		CookieName: cfg.Session.CookieName,
	}
	c.Local = &auth.LocalStrategy{
		Users:             c.Users,
		Tracker:           c.Tracker,
		Verifier:          c.Verifier,
		Validator:         validator,
		Metrics:           c.Metrics,
		ChallengesEnabled: cfg.Recaptcha.Enabled,
		TrustProxy:        cfg.Server.TrustProxy,
	}
	c.Delivery = &auth.Delivery{
		Codec:   c.Codec,
		Revoker: c.Revocations,
		Cookie: auth.CookieConfig{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.Session.Domain,
			SameSite: cfg.Session.SameSite,
			Secure:   cfg.Session.Secure,
		},
		Metrics: c.Metrics,
	}
	c.Engine = auth.NewEngine(c.Metrics)

	log.Info("auth core ready",
		logger.String("cache", cfg.Cache.Kind),
		logger.String("storage", cfg.Storage.Driver),
		logger.Bool("recaptcha", cfg.Recaptcha.Enabled),
	)
	return c, nil
}

func (c *Container) openStorage(ctx context.Context) error {
	cfg := c.Config
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pg.Open(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxConns)
		if err != nil {
			return fmt.Errorf("app: postgres: %w", err)
		}
		c.PG = st
		if _, err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("app: migrate: %w", err)
		}
		seeds := make([]pg.LocalSeed, 0, len(cfg.Storage.Users))
		for _, su := range cfg.Storage.Users {
			seeds = append(seeds, pg.LocalSeed(su))
		}
		if _, err := st.SeedLocal(ctx, seeds...); err != nil {
			return fmt.Errorf("app: seed: %w", err)
		}
		c.Users, c.Settings, c.PATs = st.Users(), st.Settings(), st.PATs()

	default:
		users := memory.NewUsers(password.Default)
		for _, su := range cfg.Storage.Users {
			if err := users.Seed(memory.SeedUser(su)); err != nil {
				return fmt.Errorf("app: seed: %w", err)
			}
		}
		c.Users = users
		c.Settings = memory.NewSettings(cfg.Settings.RequireEmailConfirmation)
		c.PATs = memory.NewPATs()
	}
	return nil
}

// Checks devuelve los pings de los componentes externos, para readyz.
func (c *Container) Checks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"cache": c.Cache.Ping,
	}
	if c.PG != nil {
		checks["postgres"] = c.PG.Ping
	}
	return checks
}

// Close libera cache y pool.
func (c *Container) Close() error {
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.PG != nil {
		c.PG.Close()
	}
	return errors.Join(errs...)
}
