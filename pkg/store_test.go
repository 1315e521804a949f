package dirhash

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecompute_TwiceIsIdentical(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.txt", "alpha")
	writeTestFile(t, root, "dir/b.txt", "beta")
	writeTestFile(t, root, "dir/nested/c.bin", "gamma")

	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	opts := StoreOptions{Now: func() time.Time { return fixed }}

	first, err := Recompute(root, opts)
	require.NoError(t, err)
	require.NoError(t, first.Save())
	firstDoc, err := os.ReadFile(StorePath(root))
	require.NoError(t, err)

	second, err := Recompute(root, opts)
	require.NoError(t, err)
	require.NoError(t, second.Save())
	secondDoc, err := os.ReadFile(StorePath(root))
	require.NoError(t, err)

	assert.Equal(t, string(firstDoc), string(secondDoc))
	assert.NotContains(t, string(secondDoc), StoreFileName)
}

func TestRecompute_UpdateTimeIsStartOfRun(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.txt", "alpha")

	before := time.Now().UTC()
	store, err := Recompute(root, StoreOptions{})
	require.NoError(t, err)
	after := time.Now().UTC()

	assert.False(t, store.UpdateTime.Before(before))
	assert.False(t, store.UpdateTime.After(after))
	assert.Equal(t, time.UTC, store.UpdateTime.Location())
}

func TestRecompute_ReportsDirectories(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "one/two/f", "x")

	var entered []string
	_, err := Recompute(root, StoreOptions{OnEnterDirectory: func(dirPath string) {
		entered = append(entered, dirPath)
	}})
	require.NoError(t, err)

	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{abs, filepath.Join(abs, "one"), filepath.Join(abs, "one", "two")}, entered)
}

func TestRecompute_AppliesConfiguration(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, ConfigurationFileName, `<configuration><exclude>
  <directories matching="Direct*" />
  <files matching="*.txt" />
</exclude></configuration>`)
	writeTestFile(t, root, "Directory/inner/deep.bin", "d")
	writeTestFile(t, root, "Directory/top.bin", "t")
	writeTestFile(t, root, "Keep/readme.txt", "r")
	writeTestFile(t, root, "Keep/data.bin", "b")
	writeTestFile(t, root, "notes.txt", "n")
	writeTestFile(t, root, "notes.txt.bak", "n")

	store, err := Recompute(root, StoreOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Keep/",
		"Keep/data.bin",
		ConfigurationFileName,
		"notes.txt.bak",
	}, treeNames(store.Tree))
}

func TestRecompute_ExcludesOwnFilesOnlyAtRoot(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, StoreFileName, "<hashes/>")
	writeTestFile(t, root, StoreFileName+LockSuffix, "")
	writeTestFile(t, root, ".Hashes-123.tmp", "partial")
	writeTestFile(t, root, "nested/"+StoreFileName, "another tree's store")
	writeTestFile(t, root, "data", "d")

	store, err := Recompute(root, StoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"nested/", "nested/" + StoreFileName, "data"}, treeNames(store.Tree))
}

func TestLoadStore_Missing(t *testing.T) {
	_, err := LoadStore(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreNotFound))

	var formatErr *StoreFormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestLoadStore_Malformed(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, StoreFileName, "<hashes updateTime=")

	_, err := LoadStore(root)
	var formatErr *StoreFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.False(t, errors.Is(err, ErrStoreNotFound))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.txt", "alpha")
	writeTestFile(t, root, "sub/b.txt", "beta")

	saved := recomputeAndSave(t, root)

	loaded, err := LoadStore(root)
	require.NoError(t, err)
	assert.True(t, saved.UpdateTime.Equal(loaded.UpdateTime))
	assert.Equal(t, treeNames(saved.Tree), treeNames(loaded.Tree))

	want, _ := saved.Tree.File("a.txt")
	got, _ := loaded.Tree.File("a.txt")
	assert.Equal(t, want, got)

	// no temp files left behind
	matches, err := filepath.Glob(filepath.Join(root, tempFilePattern))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSaveLoad_RawByteNames(t *testing.T) {
	root := t.TempDir()
	names := []string{"\xff", "\xfe", "a\x01b"}
	for _, name := range names {
		writeTestFile(t, root, name, "content of "+name)
	}
	writeTestFile(t, root, "dir\xff/inner", "nested")

	saved := recomputeAndSave(t, root)

	loaded, err := LoadStore(root)
	require.NoError(t, err)
	assert.Equal(t, treeNames(saved.Tree), treeNames(loaded.Tree))
	for _, name := range names {
		_, ok := loaded.Tree.File(name)
		assert.True(t, ok, "file %q missing after reload", name)
	}

	// nothing changed, so an update rehashes nothing
	hasher := &countingHasher{}
	require.NoError(t, loaded.Update(StoreOptions{Hasher: hasher.hash}))
	assert.Empty(t, hasher.paths)
	assert.Equal(t, treeNames(saved.Tree), treeNames(loaded.Tree))
}

func TestUpdate_RehashesOnlyModifiedFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "untouched.txt", "same")
	changed := writeTestFile(t, root, "sub/changed.txt", "v1")
	recomputeAndSave(t, root)

	store, err := LoadStore(root)
	require.NoError(t, err)
	untouchedBefore, _ := store.Tree.File("untouched.txt")

	writeTestFile(t, root, "sub/changed.txt", "v2")
	touchFuture(t, changed)

	hasher := &countingHasher{}
	require.NoError(t, store.Update(StoreOptions{Hasher: hasher.hash}))

	assert.Equal(t, []string{"changed.txt"}, hasher.paths)

	untouchedAfter, _ := store.Tree.File("untouched.txt")
	assert.Equal(t, untouchedBefore, untouchedAfter)

	sub, _ := store.Tree.Directory("sub")
	got, _ := sub.File("changed.txt")
	want, err := ComputeHashedFile(changed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpdate_ComparesAgainstPreviousUpdateTime(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a", "a")
	writeTestFile(t, root, "b", "b")
	store, err := Recompute(root, StoreOptions{})
	require.NoError(t, err)

	// a store written long ago trusts nothing created since
	store.UpdateTime = time.Now().Add(-24 * time.Hour).UTC()

	hasher := &countingHasher{}
	start := time.Now().UTC()
	require.NoError(t, store.Update(StoreOptions{Hasher: hasher.hash}))

	assert.ElementsMatch(t, []string{"a", "b"}, hasher.paths)
	assert.False(t, store.UpdateTime.Before(start))
}

func TestUpdate_AddsAndRemovesEntries(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "stays", "s")
	gone := writeTestFile(t, root, "dir/gone", "g")
	store := recomputeAndSave(t, root)

	require.NoError(t, os.Remove(gone))
	writeTestFile(t, root, "fresh", "f")

	hasher := &countingHasher{}
	require.NoError(t, store.Update(StoreOptions{Hasher: hasher.hash}))

	assert.Equal(t, []string{"fresh"}, hasher.paths)
	assert.Equal(t, []string{"dir/", "fresh", "stays"}, treeNames(store.Tree))
}

func TestEnumerate_TrustedAndUntrusted(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "trusted.txt", "t")
	modified := writeTestFile(t, root, "dir/modified.txt", "m")
	store := recomputeAndSave(t, root)

	touchFuture(t, modified)
	writeTestFile(t, root, "dir/unknown.txt", "u")
	writeTestFile(t, root, "newdir/alsounknown.txt", "n")

	var trusted, untrusted []string
	err := store.Enumerate(nil,
		func(entry DiskEntry, hf HashedFile) error {
			trusted = append(trusted, store.relativePath(entry.Path))
			cached, ok := store.Tree.File(entry.Name)
			assert.True(t, ok)
			assert.Equal(t, cached, hf)
			return nil
		},
		func(entry DiskEntry) error {
			untrusted = append(untrusted, store.relativePath(entry.Path))
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, []string{"trusted.txt"}, trusted)
	assert.ElementsMatch(t, []string{"dir/modified.txt", "dir/unknown.txt", "newdir/alsounknown.txt"}, untrusted)
}

func TestEnumerate_DoesNotModifyTree(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a", "a")
	store := recomputeAndSave(t, root)
	writeTestFile(t, root, "b", "b")

	before := treeNames(store.Tree)
	require.NoError(t, store.Enumerate(nil,
		func(DiskEntry, HashedFile) error { return nil },
		func(DiskEntry) error { return nil }))
	assert.Equal(t, before, treeNames(store.Tree))
}

func TestEnumerate_CallbackErrorAborts(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a", "a")
	writeTestFile(t, root, "b", "b")
	store := recomputeAndSave(t, root)

	stop := errors.New("stop")
	calls := 0
	err := store.Enumerate(nil,
		func(DiskEntry, HashedFile) error {
			calls++
			return stop
		},
		func(DiskEntry) error { return nil })

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestEnumerate_CustomFilter(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "skip/a", "a")
	writeTestFile(t, root, "b", "b")
	store := recomputeAndSave(t, root)

	var seen []string
	err := store.Enumerate(
		func(entry DiskEntry) bool { return entry.Name != "skip" },
		func(entry DiskEntry, _ HashedFile) error {
			seen = append(seen, entry.Name)
			return nil
		},
		func(entry DiskEntry) error {
			seen = append(seen, entry.Name)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, seen)
}
