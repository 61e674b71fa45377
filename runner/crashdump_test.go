package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrashDumpCleaner(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cros_nnapi_cts.20240101.dmp"), []byte("dump"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deeper", "meta"), []byte("x"), 0o644))

	cleaner := NewCrashDumpCleaner(dir)
	require.NoError(t, cleaner.Clean())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, dir, "the crash directory itself must survive")

	// Idempotent
	require.NoError(t, cleaner.Clean())
}

func TestCrashDumpCleanerMissingDir(t *testing.T) {
	cleaner := NewCrashDumpCleaner(filepath.Join(t.TempDir(), "absent"))
	assert.NoError(t, cleaner.Clean())
}

func TestCrashDumpCleanerDisabled(t *testing.T) {
	cleaner := NewCrashDumpCleaner("")
	assert.IsType(t, noOpCleaner{}, cleaner)
	assert.NoError(t, cleaner.Clean())
}
