// Package config carga la configuración del servicio: primero el YAML (si
// hay), después las variables de entorno, después los defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env" env:"APP_ENV"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		// TrustProxy: hay un proxy propio delante que agrega X-Forwarded-For.
		TrustProxy      bool          `yaml:"trust_proxy" env:"SERVER_TRUST_PROXY"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Cache struct {
		Kind   string `yaml:"kind" env:"CACHE_KIND"` // memory | redis
		Prefix string `yaml:"prefix" env:"CACHE_PREFIX"`
		Redis  struct {
			Addr     string `yaml:"addr" env:"REDIS_ADDR"`
			Password string `yaml:"password" env:"REDIS_PASSWORD"`
			DB       int    `yaml:"db" env:"REDIS_DB"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Storage struct {
		Driver   string `yaml:"driver" env:"STORAGE_DRIVER"` // memory | postgres
		DSN      string `yaml:"dsn" env:"STORAGE_DSN"`
		Postgres struct {
			MaxConns int32 `yaml:"max_conns" env:"PG_MAX_CONNS"`
		} `yaml:"postgres"`
		// Users precarga el driver memory (solo YAML).
		Users []SeedUser `yaml:"users"`
	} `yaml:"storage"`

	JWT struct {
		Secret   string        `yaml:"secret" env:"JWT_SECRET"`
		Issuer   string        `yaml:"issuer" env:"JWT_ISSUER"`
		Audience string        `yaml:"audience" env:"JWT_AUDIENCE"`
		Expiry   time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	} `yaml:"jwt"`

	Session struct {
		CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		Domain     string `yaml:"domain" env:"SESSION_COOKIE_DOMAIN"`
		SameSite   string `yaml:"samesite" env:"SESSION_COOKIE_SAMESITE"`
		Secure     bool   `yaml:"secure" env:"SESSION_COOKIE_SECURE"`
	} `yaml:"session"`

	Recaptcha struct {
		Enabled   bool          `yaml:"enabled" env:"RECAPTCHA_ENABLED"`
		Secret    string        `yaml:"secret" env:"RECAPTCHA_SECRET"`
		VerifyURL string        `yaml:"verify_url" env:"RECAPTCHA_VERIFY_URL"`
		Timeout   time.Duration `yaml:"timeout" env:"RECAPTCHA_TIMEOUT"`
	} `yaml:"recaptcha"`

	Login struct {
		AttemptThreshold int           `yaml:"attempt_threshold" env:"LOGIN_ATTEMPT_THRESHOLD"`
		AttemptWindow    time.Duration `yaml:"attempt_window" env:"LOGIN_ATTEMPT_WINDOW"`
	} `yaml:"login"`

	Settings struct {
		// Solo para el driver memory; con postgres el valor vive en la tabla settings.
		RequireEmailConfirmation bool `yaml:"require_email_confirmation" env:"REQUIRE_EMAIL_CONFIRMATION"`
	} `yaml:"settings"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`
}

// SeedUser identidad local precargada en el driver memory.
type SeedUser struct {
	ID        string   `yaml:"id"`
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	Username  string   `yaml:"username"`
	Roles     []string `yaml:"roles"`
	Disabled  bool     `yaml:"disabled"`
	Confirmed bool     `yaml:"confirmed"`
}

// Load lee path (si no es vacío), aplica overrides de entorno y defaults, y
// valida el resultado.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// sin envDefault: un default de env pisaría el valor del YAML
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "talk"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "talk"
	}
	if c.JWT.Audience == "" {
		c.JWT.Audience = "talk"
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "authorization"
	}
	if c.Session.SameSite == "" {
		c.Session.SameSite = "lax"
	}
	// en prod la cookie siempre viaja solo por TLS
	if c.IsProd() {
		c.Session.Secure = true
	}
	if c.Recaptcha.VerifyURL == "" {
		c.Recaptcha.VerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	}
	if c.Recaptcha.Timeout == 0 {
		c.Recaptcha.Timeout = 10 * time.Second
	}
	if c.Login.AttemptThreshold == 0 {
		c.Login.AttemptThreshold = 5
	}
	if c.Login.AttemptWindow == 0 {
		c.Login.AttemptWindow = 10 * time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// IsProd indica si app.env es prod/production.
func (c *Config) IsProd() bool {
	e := strings.ToLower(strings.TrimSpace(c.App.Env))
	return e == "prod" || e == "production"
}

// Validate junta todos los problemas de configuración en un solo error.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.Secret) < 16 {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) must be at least 16 bytes"))
	}
	if c.JWT.Expiry < 0 {
		errs = append(errs, errors.New("jwt.expiry must be positive"))
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.kind %q: want memory or redis", c.Cache.Kind))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn (STORAGE_DSN) is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q: want memory or postgres", c.Storage.Driver))
	}
	switch strings.ToLower(c.Session.SameSite) {
	case "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("session.samesite %q: want lax, strict or none", c.Session.SameSite))
	}
	if c.Recaptcha.Enabled && c.Recaptcha.Secret == "" {
		errs = append(errs, errors.New("recaptcha.secret (RECAPTCHA_SECRET) is required when recaptcha is enabled"))
	}
	if c.Login.AttemptThreshold < 1 {
		errs = append(errs, errors.New("login.attempt_threshold must be >= 1"))
	}
	if c.Login.AttemptWindow < time.Second {
		errs = append(errs, errors.New("login.attempt_window must be at least 1s"))
	}
	if c.Cache.Kind == "memory" && c.IsProd() {
		errs = append(errs, errors.New("cache.kind memory is not shared between processes; use redis in prod"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
