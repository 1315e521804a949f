package dirhash

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeTestFile creates root/rel with content, making parent directories as needed
func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// makeTestDir creates root/rel as an empty directory
func makeTestDir(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}

// touchFuture moves a file's modification time an hour ahead so that no cached hash can be trusted
func touchFuture(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
}

// recomputeAndSave hashes root and writes its store
func recomputeAndSave(t *testing.T, root string) *Store {
	t.Helper()
	store, err := Recompute(root, StoreOptions{})
	require.NoError(t, err)
	require.NoError(t, store.Save())
	return store
}

// countingHasher hashes normally and records every path it was asked to hash
type countingHasher struct {
	paths []string
}

func (c *countingHasher) hash(path string) (HashedFile, error) {
	c.paths = append(c.paths, filepath.Base(path))
	return ComputeHashedFile(path)
}

// treeNames flattens a tree into slash-separated paths, directories suffixed with '/'
func treeNames(d *HashedDirectory) []string {
	var names []string
	var walk func(prefix string, node *HashedDirectory)
	walk = func(prefix string, node *HashedDirectory) {
		node.ForEachDirectory(func(name string, child *HashedDirectory) bool {
			names = append(names, prefix+name+"/")
			walk(prefix+name+"/", child)
			return true
		})
		node.ForEachFile(func(name string, _ HashedFile) bool {
			names = append(names, prefix+name)
			return true
		})
	}
	walk("", d)
	return names
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.NoError(t, err, "expected %s to exist", path)
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s to be gone, stat err=%v", path, err)
}
