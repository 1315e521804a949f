package dirhash

import (
	"path/filepath"
	"sort"
)

// DuplicateGroup represents a group of files with the same digest pair
type DuplicateGroup struct {
	Hash  string   `json:"hash" yaml:"hash"`
	Files []string `json:"files" yaml:"files"`
	Count int      `json:"count" yaml:"count"`
}

// DuplicateResult is the outcome of FindDuplicates
type DuplicateResult struct {
	Groups    []DuplicateGroup
	Untrusted []string // files left out because their cached hash cannot be trusted
}

// FindDuplicates groups the trusted files of the store by digest pair. Paths are
// relative to the store root, groups are ordered by their first path.
func FindDuplicates(s *Store) (*DuplicateResult, error) {
	defer VerboseEnter()()

	byHash := make(map[HashedFile][]string)
	result := &DuplicateResult{}

	err := s.Enumerate(nil,
		func(entry DiskEntry, hf HashedFile) error {
			byHash[hf] = append(byHash[hf], s.relativePath(entry.Path))
			return nil
		},
		func(entry DiskEntry) error {
			result.Untrusted = append(result.Untrusted, s.relativePath(entry.Path))
			return nil
		})
	if err != nil {
		return nil, err
	}

	for hf, files := range byHash {
		if len(files) < 2 {
			continue
		}
		sort.Strings(files)
		result.Groups = append(result.Groups, DuplicateGroup{
			Hash:  hf.String(),
			Files: files,
			Count: len(files),
		})
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].Files[0] < result.Groups[j].Files[0]
	})

	VerboseLog(1, "Found %d duplicate groups in %s", len(result.Groups), s.Root)
	return result, nil
}

func (s *Store) relativePath(path string) string {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
