package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/talkauth/internal/attempts"
	"github.com/dropDatabas3/talkauth/internal/cache"
	"github.com/dropDatabas3/talkauth/internal/challenge"
	"github.com/dropDatabas3/talkauth/internal/jwt"
	"github.com/dropDatabas3/talkauth/internal/revocation"
	"github.com/dropDatabas3/talkauth/internal/security/password"
	"github.com/dropDatabas3/talkauth/internal/store/memory"
	"github.com/stretchr/testify/require"
)

var fastHash = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

// fakeVerifier responde lo configurado y cuenta llamadas.
type fakeVerifier struct {
	mu    sync.Mutex
	ok    bool
	err   error
	calls int
}

func (f *fakeVerifier) Verify(_ context.Context, req challenge.Request) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.ok && req.Response == "human", nil
}

// brokenCache simula un store caído.
type brokenCache struct{ cache.Client }

var errStoreDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (brokenCache) Get(context.Context, string) (string, error) {
	return "", errStoreDown
}
func (brokenCache) Exists(context.Context, string) (bool, error) {
	return false, errStoreDown
}
func (brokenCache) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errStoreDown
}
func (brokenCache) Delete(context.Context, string) error { return errStoreDown }
func (brokenCache) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, errStoreDown
}

type fixture struct {
	codec    *jwt.Codec
	cache    cache.Client
	users    *memory.Users
	settings *memory.Settings
	pats     *memory.PATs
	revs     *revocation.Store
	tracker  *attempts.Tracker
	verifier *fakeVerifier
	bearer   *BearerStrategy
	local    *LocalStrategy
	delivery *Delivery
}

type fixtureOpts struct {
	threshold         int
	challengesEnabled bool
	cache             cache.Client
}

func newFixture(t *testing.T, o fixtureOpts) *fixture {
	t.Helper()
	if o.threshold == 0 {
		o.threshold = 5
	}
	if o.cache == nil {
		o.cache = cache.NewMemory("test")
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "talk",
		Audience: "talk",
		Expiry:   time.Hour,
	})
	require.NoError(t, err)

	users := memory.NewUsers(fastHash)
	require.NoError(t, users.Seed(
		memory.SeedUser{ID: "u-a", Email: "a@x.com", Password: "right", Confirmed: true},
		memory.SeedUser{ID: "u-c", Email: "c@x.com", Password: "right"},
		memory.SeedUser{ID: "u-d", Email: "d@x.com", Password: "right", Confirmed: true, Disabled: true},
	))

	f := &fixture{
		codec:    codec,
		cache:    o.cache,
		users:    users,
		settings: memory.NewSettings(false),
		pats:     memory.NewPATs(),
		verifier: &fakeVerifier{ok: true},
	}
	f.revs = revocation.New(o.cache, f.pats)
	f.tracker = attempts.New(o.cache, users, attempts.Config{
		Threshold:    o.threshold,
		Window:       time.Minute,
		FlagOnExceed: o.challengesEnabled,
	})
	validator := NewLoginValidator(f.settings)
	f.bearer = &BearerStrategy{Codec: codec, Blacklist: f.revs, Users: users, Validator: validator}
	f.local = &LocalStrategy{
		Users:             users,
		Tracker:           f.tracker,
		Verifier:          f.verifier,
		Validator:         validator,
		ChallengesEnabled: o.challengesEnabled,
	}
	f.delivery = &Delivery{Codec: codec, Revoker: f.revs}
	return f
}

func (f *fixture) login(t *testing.T, email, pw, challengeResp string) (Result, error) {
	t.Helper()
	return f.local.Login(context.Background(), LoginInput{Email: email, Password: pw}, challenge.Request{Response: challengeResp})
}

func (f *fixture) bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func (f *fixture) flagged(t *testing.T, email string) bool {
	t.Helper()
	u, err := f.users.FindLocalUser(context.Background(), email)
	require.NoError(t, err)
	return u.LocalProfile(strings.ToLower(email)).Metadata.ChallengeRequired
}

func requireReason(t *testing.T, res Result, err error, want Reason) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, res.Rejection, "expected rejection %s", want)
	require.Equal(t, want, res.Rejection.Reason)
	require.Nil(t, res.Identity)
}

func requireOK(t *testing.T, res Result, err error) {
	t.Helper()
	require.NoError(t, err)
	require.Nil(t, res.Rejection)
	require.True(t, res.OK())
}
