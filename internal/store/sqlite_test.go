package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_MissingKey(t *testing.T) {
	s := setupSQLite(t)

	msgs, found, err := s.Get(context.Background(), MessageKey("P-1"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, msgs)
}

func TestSQLite_SetGetReplace(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	key := MessageKey("P-1")

	first := []Message{{Role: RoleUser, Text: "hi"}, {Role: RoleAI, Text: "hello"}}
	require.NoError(t, s.Set(ctx, key, first))

	got, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, got)

	second := []Message{{Role: RoleAI, Text: "[]"}}
	require.NoError(t, s.Set(ctx, key, second))
	got, _, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestSQLite_EmptyListIsFound(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", nil))
	got, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSQLite_Delete(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []Message{{Role: RoleUser, Text: "x"}}))
	require.NoError(t, s.Delete(ctx, "k"))
	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.Delete(ctx, "never-set"))
}

func TestSQLite_ReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []Message{{Role: RoleUser, Text: "persisted"}}))
	assert.Equal(t, filepath.Join(dir, "casegen.db"), s.Path())
	require.NoError(t, s.Close())

	s, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer s.Close()

	got, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", got[0].Text)

	var versions int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, 1, versions)
}
