package pg

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParseMigrations_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0002_second.sql": {Data: []byte("SELECT 2;")},
		"sql/0001_first.sql":  {Data: []byte("SELECT 1;")},
		"sql/README.md":       {Data: []byte("ignored")},
		"sql/notes.sql":       {Data: []byte("ignored")},
	}
	migs, err := NewMigrator(fsys, "sql").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "first", migs[0].Name)
	require.Equal(t, "SELECT 1;", migs[0].SQL)
	require.Equal(t, 2, migs[1].Version)
}

func TestParseMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/0001_a.sql": {Data: []byte("SELECT 1;")},
		"sql/001_b.sql":  {Data: []byte("SELECT 1;")},
	}
	_, err := NewMigrator(fsys, "sql").ParseMigrations()
	require.Error(t, err)
}

func TestDefaultMigrator_EmbedsSchema(t *testing.T) {
	migs, err := DefaultMigrator().ParseMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migs), 2)
	require.Equal(t, "identities", migs[0].Name)
	require.Contains(t, migs[0].SQL, "identity_profiles")
}
