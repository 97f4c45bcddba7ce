package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/revocation"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

func requireAuthError(t *testing.T, err error, msg string) {
	t.Helper()
	require.ErrorIs(t, err, apperr.ErrAuthentication)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, msg, e.Message)
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", view.Email)
	assert.Equal(t, "1990-05-01", view.BirthDate)
	require.Len(t, view.Roles, 1)
	assert.Equal(t, models.RoleUser, view.Roles[0].Authority)

	stored, err := env.repo.FindUserByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.PasswordHash)
	assert.True(t, hash.CheckPassword(stored.PasswordHash, "pw"))

	assert.Equal(t, []string{"user_registered"}, env.pub.types())
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  func() (string, string)
		msg  string
	}{
		{name: "email", req: func() (string, string) { return "jane@x.com", "999.999.999-99" }, msg: "Email already in use"},
		{name: "national id", req: func() (string, string) { return "other@x.com", "123.456.789-00" }, msg: "National ID already in use"},
	}

	for _, tt := range tests {
		email, nid := tt.req()
		_, err := env.auth.Register(ctx, registerRequest(email, nid))
		require.ErrorIs(t, err, apperr.ErrConflict, tt.name)
		e, _ := apperr.As(err)
		assert.Equal(t, tt.msg, e.Message, tt.name)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := registerRequest("not-an-email", "123")
	_, err := env.auth.Register(context.Background(), req)
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Len(t, e.Fields, 2)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)

	sess, err := env.auth.Login(ctx, "jane@x.com", "pw")
	require.NoError(t, err)
	require.True(t, env.codec.Valid(sess.AccessToken))

	access, err := env.codec.Decode(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", access.Subject)
	assert.Equal(t, []string{models.RoleUser}, access.Authorities)

	refresh, err := env.codec.Decode(sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, refresh.ExpiresAt.Time, sess.RefreshExpiresAt)

	live, err := env.rev.RefreshTokenIsLive(ctx, refresh.ID)
	require.NoError(t, err)
	assert.True(t, live)

	ttl := env.mr.TTL(revocation.RefreshPrefix + refresh.ID)
	assert.Positive(t, ttl)
	assert.LessOrEqual(t, ttl, 30*24*time.Hour)
}

func TestAuthService_Login_GenericFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)

	_, errWrong := env.auth.Login(ctx, "jane@x.com", "wrong")
	_, errUnknown := env.auth.Login(ctx, "ghost@x.com", "pw")

	requireAuthError(t, errWrong, "Invalid email or password")
	requireAuthError(t, errUnknown, "Invalid email or password")
}

func TestAuthService_Refresh_UsesCurrentRoles(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)
	sess, err := env.auth.Login(ctx, "jane@x.com", "pw")
	require.NoError(t, err)

	user, err := env.repo.FindUserByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	require.NoError(t, env.repo.GrantRole(ctx, user, models.RoleAdmin))

	access, err := env.auth.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	claims, err := env.codec.Decode(access)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleUser, models.RoleAdmin}, claims.Authorities)

	_, err = env.auth.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err, "refresh token is not rotated")
}

func TestAuthService_Refresh_Rejects(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)

	unrecorded, err := env.codec.IssueRefreshToken("jane@x.com")
	require.NoError(t, err)

	expired, err := env.codec.WithClock(func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }).IssueRefreshToken("jane@x.com")
	require.NoError(t, err)

	forged, err := tokens.NewCodec([]byte("other-secret"), time.Hour, time.Hour).IssueRefreshToken("jane@x.com")
	require.NoError(t, err)

	ghost, err := env.codec.IssueRefreshToken("ghost@x.com")
	require.NoError(t, err)
	ghostClaims, err := env.codec.Decode(ghost)
	require.NoError(t, err)
	require.NoError(t, env.rev.RecordRefreshToken(ctx, ghostClaims.ID, ghost, time.Hour))

	access, err := env.codec.IssueAccessToken("jane@x.com", []string{models.RoleUser})
	require.NoError(t, err)
	accessClaims, err := env.codec.Decode(access)
	require.NoError(t, err)
	require.NoError(t, env.rev.RecordRefreshToken(ctx, accessClaims.ID, access, time.Hour))

	tests := []struct {
		name  string
		token string
		msg   string
	}{
		{"missing", "", "Refresh token is required"},
		{"blank", "   ", "Refresh token is required"},
		{"garbage", "abc.def.ghi", "Invalid refresh token"},
		{"expired", expired, "Invalid refresh token"},
		{"wrong key", forged, "Invalid refresh token"},
		{"never recorded", unrecorded, "Refresh token does not exist"},
		{"access token", access, "Invalid refresh token"},
		{"unknown subject", ghost, "User not found"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Refresh(ctx, tt.token)
			requireAuthError(t, err, tt.msg)

			err = env.auth.Logout(ctx, tt.token, "some-access-token")
			requireAuthError(t, err, tt.msg)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)
	sess, err := env.auth.Login(ctx, "jane@x.com", "pw")
	require.NoError(t, err)

	requireAuthError(t, env.auth.Logout(ctx, sess.RefreshToken, ""), "Access token is required")
	requireAuthError(t, env.auth.Logout(ctx, sess.RefreshToken, sess.RefreshToken), "Invalid access token")

	require.NoError(t, env.auth.Logout(ctx, sess.RefreshToken, sess.AccessToken))

	access, err := env.codec.Decode(sess.AccessToken)
	require.NoError(t, err)
	listed, err := env.rev.AccessTokenIsBlacklisted(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, listed)
	ttl := env.mr.TTL(revocation.BlacklistPrefix + access.ID)
	assert.Positive(t, ttl)
	assert.LessOrEqual(t, ttl, 24*time.Hour)

	_, err = env.auth.Refresh(ctx, sess.RefreshToken)
	requireAuthError(t, err, "Refresh token does not exist")

	requireAuthError(t, env.auth.Logout(ctx, sess.RefreshToken, sess.AccessToken), "Refresh token does not exist")

	assert.Equal(t, []string{"user_registered", "user_logged_in", "user_logged_out"}, env.pub.types())
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.auth.EnsureAdmin(ctx, registerRequest("root@x.com", "000.000.000-00"))
	require.NoError(t, err)
	assert.Len(t, view.Roles, 2)

	_, err = env.auth.Register(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)
	_, err = env.auth.EnsureAdmin(ctx, registerRequest("jane@x.com", "123.456.789-00"))
	require.NoError(t, err)

	jane, err := env.repo.FindUserByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.True(t, IsAdmin(jane))
}
