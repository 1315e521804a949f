package dirhash

import (
	"sort"
	"strings"
)

// StatusResult lists how the live tree differs from the store without rehashing
// anything. Modified files have a cached hash that can no longer be trusted.
type StatusResult struct {
	Modified []string `json:"modified" yaml:"modified"`
	Added    []string `json:"added" yaml:"added"`
	Deleted  []string `json:"deleted" yaml:"deleted"`
}

// Status compares the store with the filesystem. Paths are relative to the root.
func Status(s *Store) (*StatusResult, error) {
	defer VerboseEnter()()

	result := &StatusResult{
		Modified: make([]string, 0),
		Added:    make([]string, 0),
		Deleted:  make([]string, 0),
	}
	seen := make(map[string]bool)

	err := s.Enumerate(nil,
		func(entry DiskEntry, _ HashedFile) error {
			seen[s.relativePath(entry.Path)] = true
			return nil
		},
		func(entry DiskEntry) error {
			rel := s.relativePath(entry.Path)
			seen[rel] = true
			if _, known := s.Tree.lookupFile(rel); known {
				result.Modified = append(result.Modified, rel)
			} else {
				result.Added = append(result.Added, rel)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.Tree.walkFiles("", func(rel string) {
		if !seen[rel] {
			result.Deleted = append(result.Deleted, rel)
		}
	})

	sort.Strings(result.Modified)
	sort.Strings(result.Added)
	sort.Strings(result.Deleted)
	return result, nil
}

// HasChanges returns true if there are any changes
func (sr *StatusResult) HasChanges() bool {
	return sr.TotalChanges() > 0
}

// TotalChanges returns the total number of changes
func (sr *StatusResult) TotalChanges() int {
	return len(sr.Modified) + len(sr.Added) + len(sr.Deleted)
}

// lookupFile resolves a slash-separated path below d
func (d *HashedDirectory) lookupFile(rel string) (HashedFile, bool) {
	parts := strings.Split(rel, "/")
	node := d
	for _, name := range parts[:len(parts)-1] {
		child, ok := node.Directory(name)
		if !ok {
			return HashedFile{}, false
		}
		node = child
	}
	return node.File(parts[len(parts)-1])
}

// walkFiles calls fn with the slash-separated path of every file below d
func (d *HashedDirectory) walkFiles(prefix string, fn func(rel string)) {
	d.ForEachDirectory(func(name string, child *HashedDirectory) bool {
		child.walkFiles(prefix+name+"/", fn)
		return true
	})
	d.ForEachFile(func(name string, _ HashedFile) bool {
		fn(prefix + name)
		return true
	})
}
