package netatmo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCredentialStore_SaveAndLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		store := NewFileCredentialStore(path)

		cred := Credential{
			"session":          "test123",
			accessTokenCookie:  "abc%7Cdef",
			"netatmocomlocale": "en-US",
		}
		require.NoError(t, store.Save(cred))

		// A fresh store at the same path simulates a new process.
		loaded, err := NewFileCredentialStore(path).Load()
		require.NoError(t, err)
		assert.Equal(t, cred, loaded)
	})

	t.Run("file has owner-only permissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		store := NewFileCredentialStore(path)

		require.NoError(t, store.Save(Credential{"session": "test"}))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "deeper", "session.json")
		store := NewFileCredentialStore(path)

		require.NoError(t, store.Save(Credential{"session": "test"}))
		assert.True(t, store.Exists())

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("nil credential is rejected", func(t *testing.T) {
		store := NewFileCredentialStore(filepath.Join(t.TempDir(), "session.json"))
		assert.Error(t, store.Save(nil))
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileCredentialStore(filepath.Join(dir, "session.json"))
		require.NoError(t, store.Save(Credential{"session": "test"}))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "session.json", entries[0].Name())
	})
}

func TestFileCredentialStore_Load(t *testing.T) {
	t.Run("missing file is a cache miss", func(t *testing.T) {
		store := NewFileCredentialStore(filepath.Join(t.TempDir(), "absent.json"))

		cred, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, cred)
	})

	t.Run("empty file is a cache miss", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, nil, 0600))

		cred, err := NewFileCredentialStore(path).Load()
		require.NoError(t, err)
		assert.Nil(t, cred)
	})

	t.Run("corrupt file is a cache miss and gets removed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.json")
		require.NoError(t, os.WriteFile(path, []byte("{broken json"), 0600))

		store := NewFileCredentialStore(path)
		cred, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, cred)
		assert.False(t, store.Exists())
	})
}

func TestFileCredentialStore_Clear(t *testing.T) {
	t.Run("removes the record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		store := NewFileCredentialStore(path)
		require.NoError(t, store.Save(Credential{"session": "test"}))

		require.NoError(t, store.Clear())
		assert.False(t, store.Exists())
	})

	t.Run("absent record is a no-op", func(t *testing.T) {
		store := NewFileCredentialStore(filepath.Join(t.TempDir(), "absent.json"))
		assert.NoError(t, store.Clear())
	})
}

func TestMemoryCredentialStore(t *testing.T) {
	store := NewMemoryCredentialStore()

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)

	saved := Credential{"session": "test"}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	// The store holds a copy, not the caller's map.
	saved["session"] = "mutated"
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "test", loaded["session"])

	require.NoError(t, store.Clear())
	cred, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestDefaultCredentialPath(t *testing.T) {
	path, err := DefaultCredentialPath()
	require.NoError(t, err)
	assert.Equal(t, "session.json", filepath.Base(path))
	assert.Contains(t, path, "netatmo")
}
