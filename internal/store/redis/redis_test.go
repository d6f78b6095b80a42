package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *RevocationStore, *StateStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRevocationStore(client), NewStateStore(client, time.Minute)
}

func TestRevocationStore(t *testing.T) {
	mr, revocations, _ := setup(t)
	ctx := context.Background()

	revoked, err := revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revocations.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// already expired tokens need no entry
	require.NoError(t, revocations.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revokedPrefix+"jti-2"))
}

func TestStateStore_SingleUse(t *testing.T) {
	mr, _, states := setup(t)
	ctx := context.Background()

	require.NoError(t, states.Save(ctx, "abc"))

	ok, err := states.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = states.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, states.Save(ctx, "late"))
	mr.FastForward(2 * time.Minute)
	ok, err = states.Consume(ctx, "late")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = states.Consume(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
