package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add relation indexes", "add_relation_indexes"},
		{"Add-Relation-Indexes", "add_relation_indexes"},
		{"ADD_RELATION_INDEXES", "add_relation_indexes"},
		{"add__relation__indexes", "add_relation_indexes"},
		{"Add Edge Index 2", "add_edge_index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	tmpDir := t.TempDir()

	mf, err := CreateMigration(tmpDir, "add entity tables", "Create lineage entity and relation tables")
	require.NoError(t, err)
	require.NotNil(t, mf)

	// Version prefix is a 14-digit timestamp
	assert.Len(t, mf.Version, 14)

	assert.True(t, strings.HasSuffix(mf.UpPath, ".up.sql"))
	assert.True(t, strings.HasSuffix(mf.DownPath, ".down.sql"))

	upBase := strings.TrimSuffix(filepath.Base(mf.UpPath), ".up.sql")
	downBase := strings.TrimSuffix(filepath.Base(mf.DownPath), ".down.sql")
	assert.Equal(t, upBase, downBase)

	upContent, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "add entity tables")

	downContent, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(tmpDir, "initial schema", "")
	require.NoError(t, err)

	_, err = os.Stat(mf.UpPath)
	assert.NoError(t, err)
}

func TestListMigrations(t *testing.T) {
	tmpDir := t.TempDir()

	listed, err := ListMigrations(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, listed)

	first, err := CreateMigration(tmpDir, "first", "")
	require.NoError(t, err)

	listed, err = ListMigrations(tmpDir)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, strings.TrimSuffix(filepath.Base(first.UpPath), ".up.sql"), listed[0])
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	listed, err := ListMigrations(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, listed)
}
