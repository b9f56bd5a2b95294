package entitlement

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/vidgate/internal/storage"
)

func TestEngineOverSQLite(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := &clock{now: time.Unix(1_750_000_000, 0)}
	e := NewEngine(store, nil, discardLogger(), WithClock(clk.Now))
	ctx := context.Background()
	start := clk.Now()

	_, err = e.AddPremium(ctx, 10, 2)
	require.NoError(t, err)
	until, err := e.AddPremium(ctx, 10, 3)
	require.NoError(t, err)
	assert.True(t, start.Add(5*PremiumMonth).Equal(until))

	_, err = e.RefreshToken(ctx, 10)
	require.NoError(t, err)
	require.NoError(t, e.RemovePremium(ctx, 10))

	// restart: a new engine over the same store sees the persisted expiry
	reopened := NewEngine(store, nil, discardLogger(), WithClock(clk.Now))
	st, err := reopened.Status(ctx, 10)
	require.NoError(t, err)
	assert.False(t, st.Premium)
	assert.Equal(t, Valid, st.Token.State)
	assert.True(t, start.Add(TokenTTL).Equal(st.Token.ExpiresAt))

	clk.Advance(TokenTTL)
	d, err := reopened.DecideAccess(ctx, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, DenyTokenExpired(), d)
}

func TestExpiryKeepsFullWindowAcrossSubSecondClock(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 900_000_000, time.UTC)}
	e := NewEngine(store, nil, discardLogger(), WithClock(clk.Now))
	ctx := context.Background()
	start := clk.Now()

	expires, err := e.RefreshToken(ctx, 20)
	require.NoError(t, err)
	assert.False(t, expires.Before(start.Add(TokenTTL)))

	st, err := e.TokenStatus(ctx, 20)
	require.NoError(t, err)
	assert.True(t, expires.Equal(st.ExpiresAt), "returned %s, stored %s", expires, st.ExpiresAt)

	clk.Advance(TokenTTL - 500*time.Millisecond)
	d, err := e.DecideAccess(ctx, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, Allow, d)

	until, err := e.AddPremiumDays(ctx, 21, 1)
	require.NoError(t, err)
	ps, err := e.Status(ctx, 21)
	require.NoError(t, err)
	require.NotNil(t, ps.PremiumUntil)
	assert.True(t, until.Equal(*ps.PremiumUntil), "returned %s, stored %s", until, *ps.PremiumUntil)
}
