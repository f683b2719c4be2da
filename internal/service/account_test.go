package service

import (
	"context"
	"testing"
	"time"

	"skinchanger-api/internal/cache"
	"skinchanger-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountAdminLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountService := NewAccountService(env.accounts)

	alice := registerAccount(t, env, "alice")
	registerAccount(t, env, "bob")

	views, err := accountService.List(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 2)

	view, err := accountService.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "CS2-alice", view.LicenseKey)

	require.NoError(t, accountService.SetActive(ctx, alice, false))
	view, err = accountService.Get(ctx, alice)
	require.NoError(t, err)
	assert.False(t, view.IsActive)

	require.NoError(t, accountService.Delete(ctx, alice))
	_, err = accountService.Get(ctx, alice)
	assertCode(t, err, "NOT_FOUND")

	err = accountService.Delete(ctx, alice)
	assertCode(t, err, "NOT_FOUND")
}

func TestAdminAccountCannotBeDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountService := NewAccountService(env.accounts)

	require.NoError(t, env.auth.EnsureAdmin(ctx))
	admin, err := env.accounts.GetByUsername(ctx, DefaultAdminUsername)
	require.NoError(t, err)

	err = accountService.Delete(ctx, admin.ID)
	assertCode(t, err, "FORBIDDEN")

	// Still there.
	_, err = env.accounts.GetByID(ctx, admin.ID)
	require.NoError(t, err)
}

func TestStatsCaching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stats := repository.NewSQLStatsRepository(env.store)
	statsService := NewStatsService(stats, cache.NewMemoryCache(), time.Minute)

	registerAccount(t, env, "alice")

	got, err := statsService.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalUsers)
	assert.EqualValues(t, 1, got.TotalLicenses)
	assert.EqualValues(t, 0, got.UnusedLicenses)

	// Within the TTL the cached snapshot is served.
	registerAccount(t, env, "bob")
	got, err = statsService.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalUsers)
}

func TestStatsWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stats := repository.NewSQLStatsRepository(env.store)
	statsService := NewStatsService(stats, nil, time.Minute)

	registerAccount(t, env, "alice")

	got, err := statsService.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TotalUsers)

	registerAccount(t, env, "bob")
	got, err = statsService.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.TotalUsers)
}
