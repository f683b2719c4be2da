package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"skinchanger-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func createAccount(t *testing.T, repo *SQLAccountRepository, username, email string) int64 {
	t.Helper()

	id, err := repo.Create(context.Background(), &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: "x",
		IsActive:     true,
	})
	require.NoError(t, err)
	return id
}

func TestAccountCreateDuplicate(t *testing.T) {
	store := newTestStore(t)
	repo := NewSQLAccountRepository(store)
	ctx := context.Background()

	createAccount(t, repo, "alice", "alice@example.com")

	_, err := repo.Create(ctx, &model.Account{
		Username: "alice", Email: "other@example.com", PasswordHash: "x", IsActive: true,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.Create(ctx, &model.Account{
		Username: "bob", Email: "alice@example.com", PasswordHash: "x", IsActive: true,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAccountGetAndLastLogin(t *testing.T) {
	store := newTestStore(t)
	repo := NewSQLAccountRepository(store)
	ctx := context.Background()

	id := createAccount(t, repo, "alice", "alice@example.com")

	account, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Nil(t, account.LastLogin)

	require.NoError(t, repo.UpdateLastLogin(ctx, id))

	account, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, account.LastLogin)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountSetActive(t *testing.T) {
	store := newTestStore(t)
	repo := NewSQLAccountRepository(store)
	ctx := context.Background()

	id := createAccount(t, repo, "alice", "alice@example.com")

	// Setting the value already in place is a legitimate no-op, not a miss.
	require.NoError(t, repo.SetActive(ctx, id, true))

	require.NoError(t, repo.SetActive(ctx, id, false))
	account, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, account.IsActive)

	assert.ErrorIs(t, repo.SetActive(ctx, 9999, false), ErrNotFound)
}

func TestLicenseConsumeExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	licenses := NewSQLLicenseRepository(store)
	ctx := context.Background()

	a := createAccount(t, accounts, "alice", "alice@example.com")
	b := createAccount(t, accounts, "bob", "bob@example.com")

	require.NoError(t, licenses.CreateBatch(ctx, []model.LicenseKey{{Key: "CS2-RACE"}}))

	// Two concurrent consumers: exactly one wins.
	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i, accountID := range []int64{a, b} {
		wg.Add(1)
		go func(i int, accountID int64) {
			defer wg.Done()
			results[i], errs[i] = licenses.Consume(ctx, "CS2-RACE", accountID, time.Now())
		}(i, accountID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.NotEqual(t, results[0], results[1], "exactly one consumer must win")

	key, err := licenses.GetByKey(ctx, "CS2-RACE")
	require.NoError(t, err)
	assert.True(t, key.IsUsed)
	require.NotNil(t, key.UsedBy)
	assert.NotNil(t, key.UsedAt)
}

func TestLicenseConsumeExpired(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	licenses := NewSQLLicenseRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")

	yesterday := time.Now().Add(-24 * time.Hour)
	require.NoError(t, licenses.CreateBatch(ctx, []model.LicenseKey{
		{Key: "CS2-OLD", ExpiresAt: &yesterday},
	}))

	ok, err := licenses.Consume(ctx, "CS2-OLD", id, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "expired key must be rejected at consumption time")

	key, err := licenses.GetByKey(ctx, "CS2-OLD")
	require.NoError(t, err)
	assert.False(t, key.IsUsed)
}

func TestLicenseDelete(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	licenses := NewSQLLicenseRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")
	require.NoError(t, licenses.CreateBatch(ctx, []model.LicenseKey{
		{Key: "CS2-FREE"}, {Key: "CS2-TAKEN"},
	}))

	ok, err := licenses.Consume(ctx, "CS2-TAKEN", id, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	taken, err := licenses.GetByKey(ctx, "CS2-TAKEN")
	require.NoError(t, err)
	assert.ErrorIs(t, licenses.Delete(ctx, taken.ID), ErrLicenseInUse)

	free, err := licenses.GetByKey(ctx, "CS2-FREE")
	require.NoError(t, err)
	require.NoError(t, licenses.Delete(ctx, free.ID))

	assert.ErrorIs(t, licenses.Delete(ctx, free.ID), ErrNotFound)
}

func TestAccountDeleteCascades(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	licenses := NewSQLLicenseRepository(store)
	tokens := NewSQLTokenRepository(store)
	configs := NewSQLSkinConfigRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")

	require.NoError(t, licenses.CreateBatch(ctx, []model.LicenseKey{{Key: "CS2-ABC"}}))
	ok, err := licenses.Consume(ctx, "CS2-ABC", id, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = tokens.Create(ctx, &model.APIToken{AccountID: id, Token: "tok-1"})
	require.NoError(t, err)

	for weapon := 1; weapon <= 2; weapon++ {
		_, err = configs.Insert(ctx, &model.SkinConfig{
			AccountID: id, WeaponCategory: "Rifles", WeaponName: "AK-47",
			WeaponID: weapon, SkinName: "Redline", PaintKit: 282,
		})
		require.NoError(t, err)
	}

	require.NoError(t, accounts.Delete(ctx, id))

	remaining, err := configs.ListByAccount(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	toks, err := tokens.ListByAccount(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, toks)

	// The consumed key survives with its back-reference cleared.
	key, err := licenses.GetByKey(ctx, "CS2-ABC")
	require.NoError(t, err)
	assert.True(t, key.IsUsed)
	assert.Nil(t, key.UsedBy)
}

func TestSkinConfigUniquePerWeapon(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	configs := NewSQLSkinConfigRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")

	_, err := configs.Insert(ctx, &model.SkinConfig{
		AccountID: id, WeaponCategory: "Rifles", WeaponName: "AK-47",
		WeaponID: 7, SkinName: "Redline", PaintKit: 282,
	})
	require.NoError(t, err)

	_, err = configs.Insert(ctx, &model.SkinConfig{
		AccountID: id, WeaponCategory: "Rifles", WeaponName: "AK-47",
		WeaponID: 7, SkinName: "Vulcan", PaintKit: 302,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSkinConfigOwnershipScoping(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	configs := NewSQLSkinConfigRepository(store)
	ctx := context.Background()

	alice := createAccount(t, accounts, "alice", "alice@example.com")
	bob := createAccount(t, accounts, "bob", "bob@example.com")

	id, err := configs.Insert(ctx, &model.SkinConfig{
		AccountID: alice, WeaponCategory: "Rifles", WeaponName: "AK-47",
		WeaponID: 7, SkinName: "Redline", PaintKit: 282,
	})
	require.NoError(t, err)

	// Bob sees alice's row as missing, not forbidden.
	_, err = configs.GetByID(ctx, id, bob)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, configs.Delete(ctx, id, bob), ErrNotFound)

	// Still there for alice.
	config, err := configs.GetByID(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "Redline", config.SkinName)
}

func TestSkinConfigDeleteAll(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	configs := NewSQLSkinConfigRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")

	count, err := configs.DeleteAll(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, count)

	for weapon := 1; weapon <= 3; weapon++ {
		_, err = configs.Insert(ctx, &model.SkinConfig{
			AccountID: id, WeaponCategory: "Rifles", WeaponName: "M4A4",
			WeaponID: weapon, SkinName: "Howl", PaintKit: 309,
		})
		require.NoError(t, err)
	}

	count, err = configs.DeleteAll(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestTokenDeleteExpired(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	tokens := NewSQLTokenRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	_, err := tokens.Create(ctx, &model.APIToken{AccountID: id, Token: "stale", ExpiresAt: &past})
	require.NoError(t, err)
	_, err = tokens.Create(ctx, &model.APIToken{AccountID: id, Token: "fresh", ExpiresAt: &future})
	require.NoError(t, err)

	deleted, err := tokens.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	remaining, err := tokens.ListByAccount(ctx, id)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Token)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	accounts := NewSQLAccountRepository(store)
	licenses := NewSQLLicenseRepository(store)
	stats := NewSQLStatsRepository(store)
	ctx := context.Background()

	id := createAccount(t, accounts, "alice", "alice@example.com")
	require.NoError(t, accounts.SetActive(ctx, id, false))
	createAccount(t, accounts, "bob", "bob@example.com")

	require.NoError(t, licenses.CreateBatch(ctx, []model.LicenseKey{
		{Key: "CS2-A"}, {Key: "CS2-B"},
	}))
	ok, err := licenses.Consume(ctx, "CS2-A", id, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	got, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.TotalUsers)
	assert.EqualValues(t, 1, got.ActiveUsers)
	assert.EqualValues(t, 2, got.TotalLicenses)
	assert.EqualValues(t, 1, got.UnusedLicenses)
	assert.EqualValues(t, 0, got.TotalConfigs)
}
