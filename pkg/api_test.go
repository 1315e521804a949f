package dirhash

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeUpdatePurgeWorkflow(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	writeTestFile(t, source, "music/song.mp3", "la la la")
	dup := writeTestFile(t, target, "old/backup/song.mp3", "la la la")
	keep := writeTestFile(t, target, "notes.txt", "keep me")

	_, err := RecomputeAndSave(source, StoreOptions{})
	require.NoError(t, err)
	_, err = RecomputeAndSave(target, StoreOptions{})
	require.NoError(t, err)

	writeTestFile(t, target, "new.txt", "arrived later")
	store, err := UpdateAndSave(target, StoreOptions{})
	require.NoError(t, err)
	_, ok := store.Tree.File("new.txt")
	assert.True(t, ok)

	report, err := PurgeDirectories(target, []string{source}, PurgeOptions{})
	require.NoError(t, err)

	assertNotExists(t, dup)
	assertNotExists(t, filepath.Join(target, "old"))
	assertExists(t, keep)
	assert.Len(t, report.Deleted, 1)
	assertNotExists(t, filepath.Join(target, StoreFileName+LockSuffix))
}

func TestUpdateAndSave_RequiresStore(t *testing.T) {
	_, err := UpdateAndSave(t.TempDir(), StoreOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreNotFound))
}

func TestPurgeDirectories_RequiresSourceStore(t *testing.T) {
	target := t.TempDir()
	_, err := RecomputeAndSave(target, StoreOptions{})
	require.NoError(t, err)

	_, err = PurgeDirectories(target, []string{t.TempDir()}, PurgeOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreNotFound))
}

func TestRecomputeAndSave_Locked(t *testing.T) {
	root := t.TempDir()
	lock := NewStoreLock(root)
	require.NoError(t, lock.Acquire())
	defer lock.Release()

	_, err := RecomputeAndSave(root, StoreOptions{})
	assert.True(t, errors.Is(err, ErrLocked))
	assertNotExists(t, StorePath(root))
}

func TestApplySettings(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)
	require.NoError(t, settings.ApplyOverrides([]string{"level:2", "debug:store", "hash_buffer:128K"}))

	oldLevel := GetVerboseLevel()
	defer SetVerboseLevel(oldLevel)
	defer SetDebugFlags("")

	size, err := ApplySettings(settings)
	require.NoError(t, err)
	assert.Equal(t, 128*1024, size)
	assert.Equal(t, 2, GetVerboseLevel())
	assert.True(t, IsDebugEnabled(DebugStore))

	require.NoError(t, settings.ApplyOverrides([]string{"color:rainbow"}))
	_, err = ApplySettings(settings)
	assert.Error(t, err)
}
