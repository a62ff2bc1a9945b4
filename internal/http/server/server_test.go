package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dropDatabas3/talkauth/internal/app"
	"github.com/dropDatabas3/talkauth/internal/config"
)

const testConfig = `
app:
  env: dev
jwt:
  secret: 0123456789abcdef0123456789abcdef
  expiry: 1h
login:
  attempt_threshold: 3
  attempt_window: 1m
recaptcha:
  enabled: true
  secret: s3cret
  verify_url: %VERIFY_URL%
metrics:
  enabled: true
storage:
  users:
    - id: u-a
      email: a@x.com
      password: right
      confirmed: true
`

const safariUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	siteverify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		ok := r.PostForm.Get("response") == "human" && r.PostForm.Get("secret") == "s3cret"
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": ok})
	}))
	t.Cleanup(siteverify.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(testConfig, "%VERIFY_URL%", siteverify.URL)), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	c, err := app.New(context.Background(), cfg, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	h, err := NewHandler(c, reg)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, email, password string, hdr map[string]string) (*http.Response, string) {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/auth/local", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func authed(t *testing.T, srv *httptest.Server, method, token string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+"/api/v1/auth", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return do(t, req)
}

func TestLoginMeLogout(t *testing.T) {
	srv := newTestServer(t)

	resp, body := login(t, srv, "A@x.com", "right", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.Equal(t, "u-a", gjson.Get(body, "user.id").String())
	token := gjson.Get(body, "token").String()
	require.NotEmpty(t, token)
	require.Empty(t, resp.Cookies(), "non-Safari clients get no cookie")

	resp, body = authed(t, srv, http.MethodGet, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Equal(t, "u-a", gjson.Get(body, "user.id").String())
	require.Equal(t, token, gjson.Get(body, "token").String())

	resp, _ = authed(t, srv, http.MethodDelete, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = authed(t, srv, http.MethodGet, token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "TOKEN_REVOKED", gjson.Get(body, "code").String())
}

func TestLogin_GenericInvalidCredentials(t *testing.T) {
	srv := newTestServer(t)

	resp, wrong := login(t, srv, "a@x.com", "nope", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, unknown := login(t, srv, "ghost@x.com", "nope", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.Equal(t, "INVALID_CREDENTIALS", gjson.Get(wrong, "code").String())
	require.Equal(t, gjson.Get(wrong, "message").String(), gjson.Get(unknown, "message").String())
	require.Equal(t, "email and/or password combination incorrect", gjson.Get(wrong, "message").String())
}

func TestLogin_ChallengeAfterThreshold(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, _ := login(t, srv, "a@x.com", "nope", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := login(t, srv, "a@x.com", "right", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "CHALLENGE_REQUIRED", gjson.Get(body, "code").String())

	resp, body = login(t, srv, "a@x.com", "right", map[string]string{"X-Recaptcha-Response": "robot"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "CHALLENGE_FAILED", gjson.Get(body, "code").String())

	resp, body = login(t, srv, "a@x.com", "right", map[string]string{"X-Recaptcha-Response": "human"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	// el flag se limpió y la ventana se reseteó
	resp, body = login(t, srv, "a@x.com", "right", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
}

func TestLogin_SafariGetsCookie(t *testing.T) {
	srv := newTestServer(t)

	resp, body := login(t, srv, "a@x.com", "right", map[string]string{"User-Agent": safariUA})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "authorization" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, gjson.Get(body, "token").String(), cookie.Value)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, body = do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/auth", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, _ = do(t, req)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == "authorization" && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)
}

func TestMe_RequiresCredentials(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth", nil)
	require.NoError(t, err)
	resp, body := do(t, req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "NO_CREDENTIALS", gjson.Get(body, "code").String())
	require.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))

	resp, body = authed(t, srv, http.MethodGet, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "INVALID_TOKEN", gjson.Get(body, "code").String())
}

func TestReadyzAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, mustGet(t, srv.URL+"/readyz"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", gjson.Get(body, "status").String())
	require.Equal(t, "ok", gjson.Get(body, "components.cache.status").String())

	_, _ = login(t, srv, "a@x.com", "nope", nil)

	resp, body = do(t, mustGet(t, srv.URL+"/metrics"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `auth_attempts_total{result="invalid_credentials",strategy="local"} 1`)
	require.Contains(t, body, "http_requests_total")

	resp, body = do(t, mustGet(t, srv.URL+"/nope"))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "ROUTE_NOT_FOUND", gjson.Get(body, "code").String())
}

func mustGet(t *testing.T, u string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	return req
}
