package repofake_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/trails-auth/storage"
	"github.com/jrsteele09/trails-auth/storage/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeStorageRepo_FailureInjection(t *testing.T) {
	ctx := context.Background()
	r := repofake.NewFakeStorageRepo()
	boom := errors.New("disk full")

	r.FailSet(storage.KeyUserData, boom)
	require.ErrorIs(t, r.Set(ctx, storage.KeyUserData, "{}"), boom)
	require.False(t, r.Has(storage.KeyUserData))

	r.FailSet(storage.KeyUserData, nil)
	require.NoError(t, r.Set(ctx, storage.KeyUserData, "{}"))
	require.Equal(t, []string{storage.KeyUserData, storage.KeyUserData}, r.SetCalls())

	r.FailGet(storage.KeyUserData, boom)
	_, err := r.Get(ctx, storage.KeyUserData)
	require.ErrorIs(t, err, boom)

	r.FailRemove(storage.KeyUserData, boom)
	require.ErrorIs(t, r.Remove(ctx, storage.KeyUserData), boom)
	require.True(t, r.Has(storage.KeyUserData))
}
