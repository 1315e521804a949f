package dirhash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Store is the persisted hash tree of one root directory plus the instant its
// last refresh began.
type Store struct {
	Root       string
	Tree       *HashedDirectory
	UpdateTime time.Time

	config *Configuration
}

// StoreOptions carries the per-run knobs shared by recompute and update
type StoreOptions struct {
	// HashBuffer is the read buffer size used when hashing; 0 uses DefaultHashBuffer
	HashBuffer int
	// OnEnterDirectory reports each directory as it is refreshed, root included
	OnEnterDirectory func(dirPath string)
	// Hasher overrides file hashing, mainly for tests
	Hasher func(filePath string) (HashedFile, error)
	// Now overrides the clock used for UpdateTime
	Now func() time.Time
}

func (o StoreOptions) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o StoreOptions) hasher() func(string) (HashedFile, error) {
	if o.Hasher != nil {
		return o.Hasher
	}
	bufferSize := o.HashBuffer
	return func(filePath string) (HashedFile, error) {
		return ComputeHashedFileWithBuffer(filePath, bufferSize)
	}
}

// StorePath returns the path of the store document inside rootDir
func StorePath(rootDir string) string {
	return filepath.Join(rootDir, StoreFileName)
}

func absRoot(rootDir string) (string, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", ioError("stat", abs, err)
	}
	if !info.IsDir() {
		return "", ioError("open", abs, fmt.Errorf("not a directory"))
	}
	return abs, nil
}

// Recompute builds a fresh store for rootDir, hashing every included file
func Recompute(rootDir string, opts StoreOptions) (*Store, error) {
	defer VerboseEnter()()

	root, err := absRoot(rootDir)
	if err != nil {
		return nil, err
	}
	config, err := LoadConfiguration(root)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Root:   root,
		Tree:   NewHashedDirectory(),
		config: config,
	}

	start := opts.now()
	if err := s.refresh(opts, func(DiskEntry) bool { return true }); err != nil {
		return nil, err
	}
	s.UpdateTime = start

	VerboseLog(1, "Recomputed %d file hashes under %s", s.Tree.FileCount(), root)
	return s, nil
}

// LoadStore reads the store document of rootDir together with its exclude configuration
func LoadStore(rootDir string) (*Store, error) {
	defer VerboseEnter()()

	root, err := absRoot(rootDir)
	if err != nil {
		return nil, err
	}
	storePath := StorePath(root)

	file, err := os.Open(storePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StoreFormatError{Path: storePath, Err: ErrStoreNotFound}
		}
		return nil, ioError("open", storePath, err)
	}
	defer file.Close()

	tree, updateTime, err := DecodeStore(file)
	if err != nil {
		return nil, &StoreFormatError{Path: storePath, Err: err}
	}

	config, err := LoadConfiguration(root)
	if err != nil {
		return nil, err
	}

	debugLog(DebugStore, "loaded %s: %d files, updateTime=%s",
		storePath, tree.FileCount(), updateTime.Format(time.RFC3339Nano))

	return &Store{
		Root:       root,
		Tree:       tree,
		UpdateTime: updateTime,
		config:     config,
	}, nil
}

// Update refreshes the store in place, rehashing only files created or modified
// after the previous UpdateTime. The new UpdateTime is the start of this run.
func (s *Store) Update(opts StoreOptions) error {
	defer VerboseEnter()()

	previous := s.UpdateTime
	start := opts.now()

	if err := s.refresh(opts, func(entry DiskEntry) bool {
		return entry.ModifiedAfter(previous)
	}); err != nil {
		return err
	}
	s.UpdateTime = start

	VerboseLog(1, "Updated %s: %d file hashes", s.Root, s.Tree.FileCount())
	return nil
}

func (s *Store) refresh(opts StoreOptions, shouldReprocess func(DiskEntry) bool) error {
	if opts.OnEnterDirectory != nil {
		opts.OnEnterDirectory(s.Root)
	}
	return s.Tree.Refresh(s.Root, RefreshOptions{
		ShouldInclude:       s.ShouldInclude,
		ShouldReprocessFile: shouldReprocess,
		OnEnterDirectory:    opts.OnEnterDirectory,
		Hasher:              opts.hasher(),
	})
}

// Save writes the store document atomically
func (s *Store) Save() error {
	storePath := StorePath(s.Root)
	err := atomicWrite(storePath, func(w io.Writer) error {
		return EncodeStore(w, s.Tree, s.UpdateTime)
	})
	if err != nil {
		return err
	}
	debugLog(DebugStore, "saved %s", storePath)
	return nil
}

// Configuration returns the exclude rules loaded for this root
func (s *Store) Configuration() *Configuration {
	if s.config == nil {
		s.config = EmptyConfiguration()
	}
	return s.config
}

// isOwnFile reports whether entry is one of the files dirhash itself keeps in the root
func (s *Store) isOwnFile(entry DiskEntry) bool {
	if filepath.Dir(entry.Path) != s.Root {
		return false
	}
	if entry.Name == StoreFileName || entry.Name == StoreFileName+LockSuffix {
		return true
	}
	matched, _ := filepath.Match(tempFilePattern, entry.Name)
	return matched
}

// ShouldInclude is the default filter: the store's own files and hidden+system
// entries are always excluded, everything else is subject to Hashes.config.
func (s *Store) ShouldInclude(entry DiskEntry) bool {
	if entry.HiddenSystem || s.isOwnFile(entry) {
		return false
	}
	return s.Configuration().ShouldInclude(entry)
}

// IsTrusted reports whether a cached hash is still valid for the file on disk
func (s *Store) IsTrusted(entry DiskEntry) bool {
	return !entry.ModifiedAfter(s.UpdateTime)
}

// TrustedFunc receives a file whose cached hash can be trusted
type TrustedFunc func(entry DiskEntry, hf HashedFile) error

// UntrustedFunc receives a file without a trustworthy cached hash
type UntrustedFunc func(entry DiskEntry) error

// Enumerate walks the live tree in lock-step with the stored one without modifying
// either. shouldInclude is applied on top of the store's own files and hidden+system
// entries; nil means Store.ShouldInclude. A callback error aborts the walk.
func (s *Store) Enumerate(shouldInclude func(DiskEntry) bool, onTrusted TrustedFunc, onUntrusted UntrustedFunc) error {
	defer VerboseEnter()()

	include := func(entry DiskEntry) bool {
		if entry.HiddenSystem || s.isOwnFile(entry) {
			return false
		}
		if shouldInclude == nil {
			return s.Configuration().ShouldInclude(entry)
		}
		return shouldInclude(entry)
	}

	return s.enumerate(s.Root, s.Tree, include, onTrusted, onUntrusted)
}

func (s *Store) enumerate(dirPath string, node *HashedDirectory, include func(DiskEntry) bool,
	onTrusted TrustedFunc, onUntrusted UntrustedFunc) error {

	entries, err := readDirectory(dirPath)
	if err != nil {
		return err
	}
	dirs, files := splitEntries(entries)

	for _, entry := range files {
		if !include(entry) {
			continue
		}

		var (
			hf    HashedFile
			known bool
		)
		if node != nil {
			hf, known = node.File(entry.Name)
		}

		if known && s.IsTrusted(entry) {
			debugLog(DebugEnumerate, "trusted %s", entry.Path)
			if err := onTrusted(entry, hf); err != nil {
				return err
			}
			continue
		}

		debugLog(DebugEnumerate, "untrusted %s (known=%v)", entry.Path, known)
		if err := onUntrusted(entry); err != nil {
			return err
		}
	}

	for _, entry := range dirs {
		if !include(entry) {
			continue
		}

		var child *HashedDirectory
		if node != nil {
			child, _ = node.Directory(entry.Name)
		}
		if err := s.enumerate(entry.Path, child, include, onTrusted, onUntrusted); err != nil {
			return err
		}
	}

	return nil
}
