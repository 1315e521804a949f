package dirhash

import (
	"path/filepath"
)

// PurgeOptions controls a purge run. The callbacks are optional progress hooks.
type PurgeOptions struct {
	DryRun bool

	OnDeleted          func(path, duplicateOf string)
	OnRemovedDirectory func(path string)
	OnSkipped          func(path string, reason SkipReason)
}

// Purge deletes every trusted file of target whose digest pair also belongs to a
// trusted file of one of the sources, then removes the directories that deletion
// left empty. Nothing is ever rehashed: files without a trusted cached hash, in
// either role, are reported and left alone.
//
// The report is returned even when an error aborts the run, and lists what had
// already been done. Deletions are never rolled back.
func Purge(target *Store, sources []*Store, opts PurgeOptions) (*PurgeReport, error) {
	defer VerboseEnter()()

	report := newPurgeReport(target, sources, opts.DryRun)

	lookup, err := buildLookup(sources, report, opts)
	if err != nil {
		return report, err
	}
	VerboseLog(1, "Built lookup of %d distinct hashes from %d source(s)", len(lookup), len(sources))

	deletedFrom := make(map[string]bool)
	err = target.Enumerate(nil,
		func(entry DiskEntry, hf HashedFile) error {
			representative, ok := lookup[hf]
			if !ok {
				report.KeptFiles++
				return nil
			}
			// overlapping or aliased trees: this is the copy being kept
			same, err := sameFile(representative, entry.Path)
			if err != nil {
				return err
			}
			if same {
				report.KeptFiles++
				return nil
			}

			if !opts.DryRun {
				if err := clearReadOnly(entry); err != nil {
					return err
				}
				if err := removeFile(entry.Path); err != nil {
					return err
				}
			}
			debugLog(DebugPurge, "deleted %s (duplicate of %s)", entry.Path, representative)

			deletedFrom[filepath.Dir(entry.Path)] = true
			report.addDeleted(entry.Path, representative, hf)
			if opts.OnDeleted != nil {
				opts.OnDeleted(entry.Path, representative)
			}
			return nil
		},
		func(entry DiskEntry) error {
			report.addSkipped(entry.Path, SkipUntrustedTarget)
			if opts.OnSkipped != nil {
				opts.OnSkipped(entry.Path, SkipUntrustedTarget)
			}
			return nil
		})
	if err != nil {
		return report, err
	}

	if _, err := reclaimDirectories(target, target.Root, deletedFrom, report, opts); err != nil {
		return report, err
	}

	VerboseLog(1, "Purge of %s: %d deleted, %d directories removed, %d skipped",
		target.Root, len(report.Deleted), len(report.RemovedDirectories), len(report.Skipped))
	return report, nil
}

// buildLookup maps each trusted digest pair of the sources to the first path seen with it
func buildLookup(sources []*Store, report *PurgeReport, opts PurgeOptions) (map[HashedFile]string, error) {
	lookup := make(map[HashedFile]string)

	for _, source := range sources {
		err := source.Enumerate(nil,
			func(entry DiskEntry, hf HashedFile) error {
				if _, exists := lookup[hf]; !exists {
					lookup[hf] = entry.Path
				}
				return nil
			},
			func(entry DiskEntry) error {
				report.addSkipped(entry.Path, SkipUntrustedSource)
				if opts.OnSkipped != nil {
					opts.OnSkipped(entry.Path, SkipUntrustedSource)
				}
				return nil
			})
		if err != nil {
			return nil, err
		}
	}

	return lookup, nil
}

// reclaimDirectories visits the included subdirectories of dirPath children first and
// removes a directory once it is empty, provided a file was deleted from it or one of
// its subdirectories was removed. It reports whether dirPath itself was removed.
// The root is never removed.
func reclaimDirectories(target *Store, dirPath string, deletedFrom map[string]bool,
	report *PurgeReport, opts PurgeOptions) (bool, error) {

	entries, err := readDirectory(dirPath)
	if err != nil {
		return false, err
	}
	dirs, _ := splitEntries(entries)

	childRemoved := false
	for _, entry := range dirs {
		if !target.ShouldInclude(entry) {
			continue
		}
		removed, err := reclaimDirectories(target, entry.Path, deletedFrom, report, opts)
		if err != nil {
			return false, err
		}
		childRemoved = childRemoved || removed
	}

	if dirPath == target.Root {
		return false, nil
	}
	if !deletedFrom[dirPath] && !childRemoved {
		return false, nil
	}

	empty, err := isDirectoryEmpty(dirPath)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}

	if !opts.DryRun {
		if err := removeEmptyDirectory(dirPath); err != nil {
			return false, err
		}
	}
	debugLog(DebugPurge, "removed empty directory %s", dirPath)

	report.RemovedDirectories = append(report.RemovedDirectories, dirPath)
	if opts.OnRemovedDirectory != nil {
		opts.OnRemovedDirectory(dirPath)
	}
	return true, nil
}
