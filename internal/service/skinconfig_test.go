package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAccount(t *testing.T, env *testEnv, username string) int64 {
	t.Helper()
	key := "CS2-" + username
	env.seedKey(t, key)
	_, view, err := env.auth.Register(context.Background(), username, username+"@example.com", "secret1", key)
	require.NoError(t, err)
	return view.ID
}

func akInput() SkinConfigInput {
	return SkinConfigInput{
		WeaponCategory: "Rifles",
		WeaponName:     "AK-47",
		WeaponID:       7,
		SkinName:       "Redline",
		PaintKit:       282,
	}
}

func TestUpsertCreateThenUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := registerAccount(t, env, "alice")

	id, created, err := env.skins.Upsert(ctx, alice, akInput())
	require.NoError(t, err)
	assert.True(t, created)

	// Second write for the same weapon updates in place.
	in := akInput()
	in.SkinName = "Vulcan"
	in.PaintKit = 302
	wear := 0.07
	in.Wear = &wear

	id2, created, err := env.skins.Upsert(ctx, alice, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, id2)

	configs, err := env.skins.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "Vulcan", configs[0].SkinName)
	assert.Equal(t, 302, configs[0].PaintKit)
	require.NotNil(t, configs[0].Wear)
	assert.InDelta(t, 0.07, *configs[0].Wear, 1e-9)
}

func TestUpsertIdenticalFieldsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := registerAccount(t, env, "alice")

	id, created, err := env.skins.Upsert(ctx, alice, akInput())
	require.NoError(t, err)
	assert.True(t, created)

	// Re-sending the exact same payload must succeed as an update even
	// though no field value changes.
	id2, created, err := env.skins.Upsert(ctx, alice, akInput())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, id2)
}

func TestUpsertValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := registerAccount(t, env, "alice")

	in := akInput()
	in.SkinName = ""
	_, _, err := env.skins.Upsert(ctx, alice, in)
	assertCode(t, err, "VALIDATION_ERROR")

	in = akInput()
	in.WeaponID = 0
	_, _, err = env.skins.Upsert(ctx, alice, in)
	assertCode(t, err, "VALIDATION_ERROR")
}

func TestConfigsAreAccountScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := registerAccount(t, env, "alice")
	bob := registerAccount(t, env, "bob")

	id, _, err := env.skins.Upsert(ctx, alice, akInput())
	require.NoError(t, err)

	// Bob holds the same weapon independently.
	_, created, err := env.skins.Upsert(ctx, bob, akInput())
	require.NoError(t, err)
	assert.True(t, created)

	// Bob cannot read or delete alice's row; it looks absent.
	_, err = env.skins.Get(ctx, bob, id)
	assertCode(t, err, "NOT_FOUND")
	err = env.skins.Delete(ctx, bob, id)
	assertCode(t, err, "NOT_FOUND")

	config, err := env.skins.Get(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, alice, config.AccountID)
}

func TestDeleteAllConfigs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := registerAccount(t, env, "alice")

	count, err := env.skins.DeleteAll(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, count)

	for weapon := 1; weapon <= 3; weapon++ {
		in := akInput()
		in.WeaponID = weapon
		_, _, err := env.skins.Upsert(ctx, alice, in)
		require.NoError(t, err)
	}

	count, err = env.skins.DeleteAll(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	configs, err := env.skins.List(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, configs)
}
