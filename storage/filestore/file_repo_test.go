package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/trails-auth/storage"
	"github.com/jrsteele09/trails-auth/storage/filestore"
	"github.com/stretchr/testify/require"
)

func TestFileRepo_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := filestore.New(dir)
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, storage.KeyAuthToken, "T1"))
	require.NoError(t, r.Set(ctx, storage.KeyUserData, `{"id":"u1"}`))

	reopened, err := filestore.New(dir)
	require.NoError(t, err)

	token, err := reopened.Get(ctx, storage.KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "T1", token)

	user, err := reopened.Get(ctx, storage.KeyUserData)
	require.NoError(t, err)
	require.Equal(t, `{"id":"u1"}`, user)
}

func TestFileRepo_GetMissing(t *testing.T) {
	r, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	_, err = r.Get(context.Background(), storage.KeyAuthToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileRepo_RemoveAbsentKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	r, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, r.Remove(ctx, storage.KeyRefreshToken))

	require.NoError(t, r.Set(ctx, storage.KeyRefreshToken, "R1"))
	require.NoError(t, r.Remove(ctx, storage.KeyRefreshToken))
	_, err = r.Get(ctx, storage.KeyRefreshToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileRepo_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{broken"), 0o600))

	_, err := filestore.New(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

func TestFileRepo_FilePermissions(t *testing.T) {
	r, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, r.Set(context.Background(), storage.KeyAuthToken, "T1"))

	info, err := os.Stat(r.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
