package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/formulatag/internal/annotation"
)

// backends returns a fresh instance of every backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	sq, err := OpenSQLiteMemory()
	require.NoError(t, err)

	bg, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)

	stores := map[string]Store{"file": fs, "sqlite": sq, "badger": bg}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			m := annotation.Map{"m1": "ID", "m2": "CL"}
			require.NoError(t, s.Put(ctx, "1808.02342", m))

			got, ok, err := s.Get(ctx, "1808.02342")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, m, got)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, ok, err := s.Get(ctx, "never-stored")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestStore_PutReplacesWholeMap(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "d", annotation.Map{"a": "U", "b": "U"}))
			require.NoError(t, s.Put(ctx, "d", annotation.Map{"a": "P"}))

			got, _, err := s.Get(ctx, "d")
			require.NoError(t, err)
			assert.Equal(t, annotation.Map{"a": "P"}, got)
		})
	}
}

func TestStore_EmptyMap(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "empty", annotation.Map{}))
			got, ok, err := s.Get(ctx, "empty")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"para_2.html", "1808.02342", "para_1.html"} {
				require.NoError(t, s.Put(ctx, id, annotation.Map{}))
			}
			ids, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"1808.02342", "para_1.html", "para_2.html"}, ids)
		})
	}
}

func TestStore_RejectsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "..", "../etc/passwd", "a/b", `a\b`} {
				err := s.Put(ctx, id, annotation.Map{})
				assert.True(t, errors.Is(err, ErrInvalidID), "Put(%q): %v", id, err)
				_, _, err = s.Get(ctx, id)
				assert.True(t, errors.Is(err, ErrInvalidID), "Get(%q): %v", id, err)
			}
		})
	}
}

func TestFileStore_OriginalLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "1808.02342", annotation.Map{"m": "NUM"}))

	data, err := os.ReadFile(filepath.Join(dir, "1808.02342.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"m":"NUM"}`, string(data))
}

func TestFileStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`[1]`), 0o644))

	_, _, err = s.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, annotation.ErrMalformed)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "annotations.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "d", annotation.Map{"x": "CL"}))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	got, ok, err := s2.Get(context.Background(), "d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "CL", got["x"])
}

func TestSQLite_AppliesPragmas(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "annotations.db"))
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, s.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "d", annotation.Map{"x": "ID"}))
	require.NoError(t, s.Close())

	s2, err := OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer s2.Close()
	got, ok, err := s2.Get(context.Background(), "d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ID", got["x"])
}

func TestOpen_Dispatch(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{Backend: BackendFile, Path: filepath.Join(dir, "files")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	s.Close()

	s, err = Open(Config{Backend: BackendSQLite, Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	_, err = Open(Config{Backend: "redis"})
	assert.Error(t, err)
}

func TestContentHashHex(t *testing.T) {
	// SHA-256 of "{}" is stable.
	assert.Equal(t, ContentHashHex([]byte("{}")), ContentHashHex([]byte("{}")))
	assert.NotEqual(t, ContentHashHex([]byte("{}")), ContentHashHex([]byte(`{"a":"U"}`)))
	assert.Len(t, ContentHashHex(nil), 64)
}
