package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `
app:
  env: dev
server:
  addr: ":9090"
cache:
  kind: redis
  redis:
    addr: "redis:6379"
jwt:
  secret: "yaml-secret-0123456789"
  expiry: 2h
recaptcha:
  enabled: true
  secret: "captcha"
login:
  attempt_threshold: 3
  attempt_window: 5m
storage:
  users:
    - id: u1
      email: a@x.com
      password: pw
      confirmed: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, "redis", c.Cache.Kind)
	require.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	require.Equal(t, 2*time.Hour, c.JWT.Expiry)
	require.Equal(t, 3, c.Login.AttemptThreshold)
	require.Equal(t, 5*time.Minute, c.Login.AttemptWindow)
	require.True(t, c.Recaptcha.Enabled)
	require.Len(t, c.Storage.Users, 1)
	require.True(t, c.Storage.Users[0].Confirmed)

	// defaults
	require.Equal(t, "talk", c.JWT.Issuer)
	require.Equal(t, "talk", c.JWT.Audience)
	require.Equal(t, "authorization", c.Session.CookieName)
	require.Equal(t, "https://www.google.com/recaptcha/api/siteverify", c.Recaptcha.VerifyURL)
	require.Equal(t, "memory", c.Storage.Driver)
	require.False(t, c.Session.Secure)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	t.Setenv("LOGIN_ATTEMPT_THRESHOLD", "7")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("REDIS_DB", "2")

	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.Equal(t, "env-secret-0123456789", c.JWT.Secret)
	require.Equal(t, 7, c.Login.AttemptThreshold)
	require.Equal(t, 30*time.Minute, c.JWT.Expiry)
	require.Equal(t, 2, c.Cache.Redis.DB)
	// lo que no viene por env se conserva
	require.Equal(t, ":9090", c.Server.Addr)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, 5, c.Login.AttemptThreshold)
	require.Equal(t, 10*time.Minute, c.Login.AttemptWindow)
}

func TestLoad_ProdForcesSecureCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CACHE_KIND", "redis")
	c, err := Load("")
	require.NoError(t, err)
	require.True(t, c.Session.Secure)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"missing secret":          "jwt: {secret: short}",
		"recaptcha without key":   "jwt: {secret: 0123456789abcdef}\nrecaptcha: {enabled: true}",
		"postgres without dsn":    "jwt: {secret: 0123456789abcdef}\nstorage: {driver: postgres}",
		"unknown cache":           "jwt: {secret: 0123456789abcdef}\ncache: {kind: memcached}",
		"bad samesite":            "jwt: {secret: 0123456789abcdef}\nsession: {samesite: sometimes}",
		"memory cache in prod":    "jwt: {secret: 0123456789abcdef}\napp: {env: prod}",
		"negative threshold":      "jwt: {secret: 0123456789abcdef}\nlogin: {attempt_threshold: -1}",
		"window below one second": "jwt: {secret: 0123456789abcdef}\nlogin: {attempt_window: 10ms}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
