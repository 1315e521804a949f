package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dirhash "github.com/mattkeenan/dirhash/pkg"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// runCLI runs dirhash with an isolated settings file
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--settings", filepath.Join(t.TempDir(), "settings")}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionConstant(t *testing.T) {
	if Version == "" {
		t.Error("Version constant should not be empty")
	}
}

func TestRecomputeCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")
	writeFile(t, root, "sub/b.txt", "beta")

	code, stdout, stderr := runCLI(t, "recompute", "--dir", root)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "Recomputing hashes of "+root+"...")
	assert.Contains(t, stdout, "Recomputing hashes of "+filepath.Join(root, "sub")+"...")
	assert.Contains(t, stdout, "Hashed 2 files")

	store, err := dirhash.LoadStore(root)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Tree.FileCount())
}

func TestUpdateCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")

	code, _, stderr := runCLI(t, "recompute", "--dir", root)
	require.Equal(t, 0, code, stderr)

	writeFile(t, root, "b.txt", "beta")
	code, stdout, stderr := runCLI(t, "update", "--dir", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Updating hashes of "+root+"...")
	assert.Contains(t, stdout, "2 files hashed")
}

func TestUpdateCommand_WithoutStore(t *testing.T) {
	code, _, stderr := runCLI(t, "update", "--dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "dirhash: ")
	assert.Contains(t, stderr, "run recompute first")
}

func TestPurgeCommand(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	original := writeFile(t, source, "keep/a.bin", "payload")
	dup := writeFile(t, target, "copy/a.bin", "payload")

	for _, dir := range []string{source, target} {
		code, _, stderr := runCLI(t, "recompute", "--dir", dir)
		require.Equal(t, 0, code, stderr)
	}

	reportPath := filepath.Join(t.TempDir(), "report.yaml")
	code, stdout, stderr := runCLI(t, "purge", "--dry-run", "--report", reportPath, "--dir", target, source)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Would delete "+dup)
	assert.Contains(t, stdout, "Dry run: 1 files deleted")
	_, err := os.Stat(dup)
	require.NoError(t, err)

	report, err := dirhash.LoadPurgeReport(reportPath)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	require.Len(t, report.Deleted, 1)
	assert.Equal(t, original, report.Deleted[0].DuplicateOf)

	code, stdout, stderr = runCLI(t, "purge", "--dir", target, source)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Deleted "+dup)
	assert.Contains(t, stdout, "Removed empty directory "+filepath.Join(target, "copy"))
	_, err = os.Stat(dup)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(original)
	assert.NoError(t, err)
}

func TestPurgeCommand_DryRunFromSettings(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, source, "a", "same")
	dup := writeFile(t, target, "a", "same")
	for _, dir := range []string{source, target} {
		code, _, stderr := runCLI(t, "recompute", "--dir", dir)
		require.Equal(t, 0, code, stderr)
	}

	code, stdout, stderr := runCLI(t, "--set", "dry_run:true", "purge", "--dir", target, source)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Would delete")
	_, err := os.Stat(dup)
	assert.NoError(t, err)
}

func TestPurgeCommand_RequiresSources(t *testing.T) {
	code, _, stderr := runCLI(t, "purge", "--dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "requires at least 1 arg")
}

func TestDupesCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "x", "same")
	writeFile(t, root, "y/z", "same")
	code, _, stderr := runCLI(t, "recompute", "--dir", root)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "dupes", "--dir", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "(2 files)")
	assert.Contains(t, stdout, "  x\n")
	assert.Contains(t, stdout, "  y/z\n")
	assert.Contains(t, stdout, "1 duplicate groups")

	code, stdout, stderr = runCLI(t, "dupes", "--format", "yaml", "--dir", root)
	require.Equal(t, 0, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "- hash: "), stdout)
	assert.Contains(t, stdout, "count: 2")
}

func TestInvalidOverride(t *testing.T) {
	code, _, stderr := runCLI(t, "--set", "bogus:1", "recompute", "--dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported override key")
}

func TestStatusCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a", "a")
	code, _, stderr := runCLI(t, "recompute", "--dir", root)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "status", "--dir", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "No changes since the last update")

	writeFile(t, root, "b", "b")
	code, stdout, stderr = runCLI(t, "status", "--dir", root)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "added:    b")
}

func TestReportCommand(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeFile(t, source, "keep", "same")
	dup := writeFile(t, target, "copy/dup", "same")
	for _, dir := range []string{source, target} {
		code, _, stderr := runCLI(t, "recompute", "--dir", dir)
		require.Equal(t, 0, code, stderr)
	}

	reportPath := filepath.Join(t.TempDir(), "report.yaml")
	code, _, stderr := runCLI(t, "purge", "--report", reportPath, "--dir", target, source)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "report", reportPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Purge ")
	assert.Contains(t, stdout, "of "+target)
	assert.Contains(t, stdout, "Deleted "+dup)
	assert.Contains(t, stdout, "Removed empty directory "+filepath.Join(target, "copy"))
	assert.Contains(t, stdout, "1 files deleted, 1 directories removed")

	code, _, stderr = runCLI(t, "report", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "failed to read report file")
}

func TestSettingsCommand(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "nested", "config")

	code, stdout, stderr := runCLI(t, "--settings", settingsPath, "settings")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "color = auto")
	assert.Contains(t, stdout, "hash_buffer = 64K")
	_, err := os.Stat(settingsPath)
	assert.True(t, os.IsNotExist(err), "showing settings must not create the file")

	code, stdout, stderr = runCLI(t, "--settings", settingsPath,
		"--set", "color:never", "--set", "dry_run:true", "settings", "--save")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Saved settings to "+settingsPath)

	code, stdout, stderr = runCLI(t, "--settings", settingsPath, "settings")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "color = never")
	assert.Contains(t, stdout, "dry_run = true")
}
