package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/talkauth/internal/domain/types"
	"github.com/dropDatabas3/talkauth/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	ctx := context.Background()
	v := NewLoginValidator(memory.NewSettings(true))
	confirmed := time.Now()

	u := &types.Identity{ID: "u1", Profiles: []types.Profile{
		{ID: "a@x.com", Provider: types.ProviderLocal},
		{ID: "fb-123", Provider: "facebook"},
		{ID: "b@x.com", Provider: types.ProviderLocal, Metadata: types.ProfileMetadata{ConfirmedAt: &confirmed}},
	}}

	rj, err := v.Validate(ctx, u, &types.LoginProfile{ID: "a@x.com", Provider: types.ProviderLocal})
	require.NoError(t, err)
	require.Equal(t, ReasonEmailNotConfirmed, rj.Reason)
	require.Equal(t, "a@x.com", rj.ProfileID)

	rj, err = v.Validate(ctx, u, &types.LoginProfile{ID: "b@x.com", Provider: types.ProviderLocal})
	require.NoError(t, err)
	require.Nil(t, rj)

	// los perfiles sociales no pasan por la confirmación de email
	res, err := v.ValidateSocial(ctx, u, "facebook", "fb-123")
	require.NoError(t, err)
	require.True(t, res.OK())

	_, err = v.Validate(ctx, u, &types.LoginProfile{ID: "missing@x.com", Provider: types.ProviderLocal})
	require.ErrorIs(t, err, ErrProfileMismatch)

	u.Disabled = true
	res, err = v.ValidateSocial(ctx, u, "facebook", "fb-123")
	require.NoError(t, err)
	require.Equal(t, ReasonAccountDisabled, res.Rejection.Reason)
}
