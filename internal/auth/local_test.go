package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dropDatabas3/talkauth/internal/attempts"
	"github.com/dropDatabas3/talkauth/internal/challenge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Success(t *testing.T) {
	f := newFixture(t, fixtureOpts{challengesEnabled: true})
	res, err := f.login(t, " A@X.com ", "right", "")
	requireOK(t, res, err)
	require.Equal(t, "u-a", res.Identity.ID)
	require.Nil(t, res.Token)
}

func TestLocal_MissingFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{threshold: 1})

	for _, in := range []LoginInput{{}, {Email: "a@x.com"}, {Password: "right"}, {Email: "   ", Password: "x"}} {
		res, err := f.local.Login(ctx, in, challenge.Request{})
		requireReason(t, res, err, ReasonNoCredentials)
	}
	n, err := f.tracker.Count(ctx, "a@x.com")
	require.NoError(t, err)
	require.Zero(t, n)
}

// Umbral 5: cinco fallos, el sexto intento sin challenge se rechaza aun con
// la contraseña correcta; con challenge verificado pasa y levanta el flag.
func TestLocal_ThresholdThenChallengeClearsFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{threshold: 5, challengesEnabled: true})

	for i := 0; i < 5; i++ {
		res, err := f.login(t, "a@x.com", "wrong", "")
		requireReason(t, res, err, ReasonInvalidCredentials)
	}
	require.True(t, f.flagged(t, "a@x.com"), "crossing the threshold flags the account")

	res, err := f.login(t, "a@x.com", "right", "")
	requireReason(t, res, err, ReasonChallengeRequired)

	res, err = f.login(t, "a@x.com", "right", "human")
	requireOK(t, res, err)
	require.False(t, f.flagged(t, "a@x.com"))

	// el flag no es pegajoso más allá de un login exitoso
	res, err = f.login(t, "a@x.com", "right", "")
	requireOK(t, res, err)

	n, err := f.tracker.Count(ctx, "a@x.com")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLocal_ForcedRejectKeepsCounting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{threshold: 2, challengesEnabled: true})

	for i := 0; i < 2; i++ {
		_, _ = f.login(t, "ghost@x.com", "x", "")
	}
	for i := 0; i < 3; i++ {
		res, err := f.login(t, "ghost@x.com", "x", "")
		requireReason(t, res, err, ReasonChallengeRequired)
	}
	n, err := f.tracker.Count(ctx, "ghost@x.com")
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}

func TestLocal_UnknownEmailAndWrongPasswordLookIdentical(t *testing.T) {
	f := newFixture(t, fixtureOpts{threshold: 1, challengesEnabled: true})

	unknown, err := f.login(t, "nobody@x.com", "whatever", "")
	requireReason(t, unknown, err, ReasonInvalidCredentials)

	wrong, err := f.login(t, "a@x.com", "whatever", "")
	requireReason(t, wrong, err, ReasonInvalidCredentials)

	require.Equal(t, *unknown.Rejection, *wrong.Rejection)

	// la contabilidad difiere: solo la identidad conocida queda marcada
	require.True(t, f.flagged(t, "a@x.com"))
}

func TestLocal_ChallengeFailedRecordsAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{challengesEnabled: true})

	for _, email := range []string{"a@x.com", "nobody@x.com"} {
		res, err := f.login(t, email, "right", "robot")
		requireReason(t, res, err, ReasonChallengeFailed)

		n, err := f.tracker.Count(ctx, email)
		require.NoError(t, err)
		require.EqualValues(t, 1, n, email)
	}
}

func TestLocal_ChallengeServiceErrorRecordsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{challengesEnabled: true})
	f.verifier.err = challenge.ErrService

	res, err := f.login(t, "a@x.com", "right", "human")
	require.ErrorIs(t, err, challenge.ErrService)
	require.Nil(t, res.Rejection)

	n, err := f.tracker.Count(ctx, "a@x.com")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLocal_FlaggedAccountNeedsChallengeAfterWindowReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{challengesEnabled: true})
	require.NoError(t, f.users.SetChallengeRequired(ctx, "a@x.com", true))

	res, err := f.login(t, "a@x.com", "right", "")
	requireReason(t, res, err, ReasonChallengeRequired)
	require.True(t, f.flagged(t, "a@x.com"))

	res, err = f.login(t, "a@x.com", "right", "human")
	requireOK(t, res, err)
	require.False(t, f.flagged(t, "a@x.com"))
}

func TestLocal_ChallengesDisabled(t *testing.T) {
	f := newFixture(t, fixtureOpts{threshold: 2})

	for i := 0; i < 2; i++ {
		res, err := f.login(t, "a@x.com", "wrong", "")
		requireReason(t, res, err, ReasonInvalidCredentials)
	}
	require.False(t, f.flagged(t, "a@x.com"), "no flag without challenges")

	// el header de challenge se ignora
	res, err := f.login(t, "a@x.com", "right", "human")
	requireReason(t, res, err, ReasonAttemptLimitExceeded)
	require.Zero(t, f.verifier.calls)
}

func TestLocal_DisabledAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("plain", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{challengesEnabled: true})
		res, err := f.login(t, "d@x.com", "right", "")
		requireReason(t, res, err, ReasonAccountDisabled)
	})

	t.Run("flagged with challenge", func(t *testing.T) {
		f := newFixture(t, fixtureOpts{challengesEnabled: true})
		require.NoError(t, f.users.SetChallengeRequired(ctx, "d@x.com", true))
		_ = f.tracker.RecordFailedAttempt(ctx, "d@x.com", attempts.RecordOptions{})

		res, err := f.login(t, "d@x.com", "right", "human")
		requireReason(t, res, err, ReasonAccountDisabled)
	})
}

func TestLocal_EmailNotConfirmed(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.settings.SetRequireEmailConfirmation(true)

	res, err := f.login(t, "c@x.com", "right", "")
	requireReason(t, res, err, ReasonEmailNotConfirmed)
	require.Equal(t, "c@x.com", res.Rejection.ProfileID)

	res, err = f.login(t, "a@x.com", "right", "")
	requireOK(t, res, err)

	f.settings.SetRequireEmailConfirmation(false)
	res, err = f.login(t, "c@x.com", "right", "")
	requireOK(t, res, err)
}

func TestLocal_StoreUnavailable(t *testing.T) {
	f := newFixture(t, fixtureOpts{cache: brokenCache{}})
	res, err := f.login(t, "a@x.com", "right", "")
	require.ErrorIs(t, err, attempts.ErrStoreUnavailable)
	require.Nil(t, res.Rejection)
}

func TestLocal_ConcurrentFailuresAreAllCounted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureOpts{threshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.login(t, "a@x.com", "wrong", "")
			assert.NoError(t, err)
			assert.Equal(t, ReasonInvalidCredentials, res.Rejection.Reason)
		}()
	}
	wg.Wait()

	n, err := f.tracker.Count(ctx, "a@x.com")
	require.NoError(t, err)
	require.EqualValues(t, 20, n)
}

func TestLocal_AuthenticateReadsRequest(t *testing.T) {
	f := newFixture(t, fixtureOpts{challengesEnabled: true})

	form := url.Values{"email": {"a@x.com"}, "password": {"right"}}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/local", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := f.local.Authenticate(context.Background(), r)
	requireOK(t, res, err)

	r = httptest.NewRequest(http.MethodPost, "/api/v1/auth/local", strings.NewReader(`{"email":"a@x.com","password":"right"}`))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(challenge.HeaderName, "robot")
	res, err = f.local.Authenticate(context.Background(), r)
	requireReason(t, res, err, ReasonChallengeFailed)
}

func TestLocal_ChallengeRequestIgnoresForwardedForByDefault(t *testing.T) {
	f := newFixture(t, fixtureOpts{challengesEnabled: true})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/local", nil)
	r.RemoteAddr = "192.0.2.10:5555"
	r.Header.Set("X-Forwarded-For", "6.6.6.6")
	r.Header.Set(challenge.HeaderName, "human")
	require.Equal(t, challenge.Request{Response: "human", RemoteIP: "192.0.2.10"}, f.local.ChallengeRequest(r))

	f.local.TrustProxy = true
	require.Equal(t, "6.6.6.6", f.local.ChallengeRequest(r).RemoteIP)
}

func TestParseLoginInput(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":" A@X.COM ","password":"p"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	require.Equal(t, LoginInput{Email: "a@x.com", Password: "p"}, ParseLoginInput(httptest.NewRecorder(), r))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	r.Header.Set("Content-Type", "application/json")
	require.Equal(t, LoginInput{}, ParseLoginInput(httptest.NewRecorder(), r))
}
