package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_LoadsFilePerSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("hunter2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api_key"), []byte("abc123"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	s := &Store{Dir: dir}
	require.NoError(t, s.Init(context.Background()))

	v, err := s.Get("db_password")
	require.NoError(t, err)
	require.Equal(t, "hunter2", v, "trailing whitespace is trimmed")

	v, err = s.Get("api_key")
	require.NoError(t, err)
	require.Equal(t, "abc123", v)

	_, err = s.Get("subdir")
	require.Error(t, err, "directories are not secrets")
}

func TestStore_MissingDirectoryIsEmpty(t *testing.T) {
	s := &Store{Dir: filepath.Join(t.TempDir(), "absent")}
	require.NoError(t, s.Init(context.Background()))

	_, err := s.Get("anything")
	require.Error(t, err)
}
