package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/authdiscovery/apiv1/dbhelper"
	"github.com/authdiscovery/apiv1/models"
	"github.com/authdiscovery/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *dbhelper.MemoryUserStore, string) {
	t.Helper()
	store := dbhelper.NewMemoryUserStore()
	user := &models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	svc := NewService(store, Config{
		AccessKeys:  utils.SigningKeys{Current: []byte("access-secret")},
		RefreshKeys: utils.SigningKeys{Current: []byte("refresh-secret")},
		AccessTTL:   time.Hour,
		RefreshTTL:  24 * time.Hour,
	})
	return svc, store, user.ID
}

func TestIssuePair(t *testing.T) {
	ctx := context.Background()
	svc, store, id := newTestService(t)

	pair, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, utils.ACCESS_TYPE, claims.TokenType)

	user, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user.RefreshTokenHash)
	assert.Equal(t, utils.HashToken(pair.RefreshToken), *user.RefreshTokenHash)

	_, err = svc.IssuePair(ctx, "missing")
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestVerify_WrongType(t *testing.T) {
	svc, _, id := newTestService(t)
	pair, err := svc.IssuePair(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.RefreshToken)
	assert.Equal(t, utils.KindUnauthorized, utils.KindOf(err))
	_, err = svc.VerifyRefresh(pair.AccessToken)
	assert.Equal(t, utils.KindUnauthorized, utils.KindOf(err))
	_, err = svc.VerifyAccess("")
	assert.Equal(t, utils.KindUnauthorized, utils.KindOf(err))
}

func TestVerifyAccess_Expired(t *testing.T) {
	svc, _, id := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := svc.IssuePair(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.AccessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrTokenExpired)
}

func TestRotate(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	pair, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)

	access, err := svc.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := svc.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	// the refresh token is not consumed by rotation
	_, err = svc.Rotate(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRotate_SupersededByNewLogin(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	first, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)
	second, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)

	_, err = svc.Rotate(ctx, first.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, utils.KindUnauthorized, utils.KindOf(err))
	assert.Equal(t, utils.REFRESH_TOKEN_SUPERSEDED, utils.AsAppError(err).Message)

	_, err = svc.Rotate(ctx, second.RefreshToken)
	assert.NoError(t, err)

	// the earlier access token stays valid until it expires
	_, err = svc.VerifyAccess(first.AccessToken)
	assert.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	svc, store, id := newTestService(t)
	pair, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, id))
	user, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, user.RefreshTokenHash)

	_, err = svc.Rotate(ctx, pair.RefreshToken)
	assert.Equal(t, utils.KindUnauthorized, utils.KindOf(err))
}

func TestVerifyRefresh_PreviousKey(t *testing.T) {
	ctx := context.Background()
	svc, store, id := newTestService(t)
	pair, err := svc.IssuePair(ctx, id)
	require.NoError(t, err)

	rotated := NewService(store, Config{
		AccessKeys:  utils.SigningKeys{Current: []byte("access-secret-2"), Previous: []byte("access-secret")},
		RefreshKeys: utils.SigningKeys{Current: []byte("refresh-secret-2"), Previous: []byte("refresh-secret")},
	})
	_, err = rotated.VerifyAccess(pair.AccessToken)
	assert.NoError(t, err)
	_, err = rotated.Rotate(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}
