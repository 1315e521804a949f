package dirhash

// HashedDirectory is one node of the hash tree. Children are keyed by their exact
// (case-sensitive) name and kept in byte order for deterministic output.
type HashedDirectory struct {
	dirs  *nameIndex[*HashedDirectory]
	files *nameIndex[HashedFile]
}

// NewHashedDirectory creates an empty node
func NewHashedDirectory() *HashedDirectory {
	return &HashedDirectory{
		dirs:  newNameIndex[*HashedDirectory](),
		files: newNameIndex[HashedFile](),
	}
}

// RefreshOptions parameterizes a refresh pass
type RefreshOptions struct {
	// ShouldInclude filters directory children; nil includes everything
	ShouldInclude func(DiskEntry) bool
	// ShouldReprocessFile decides whether a known file is rehashed; nil never rehashes
	ShouldReprocessFile func(DiskEntry) bool
	// OnEnterDirectory is called with the path of each subdirectory before it is refreshed
	OnEnterDirectory func(dirPath string)
	// Hasher computes a file's digests; nil uses ComputeHashedFile
	Hasher func(filePath string) (HashedFile, error)
}

func (o *RefreshOptions) include(entry DiskEntry) bool {
	return o.ShouldInclude == nil || o.ShouldInclude(entry)
}

func (o *RefreshOptions) reprocess(entry DiskEntry) bool {
	return o.ShouldReprocessFile != nil && o.ShouldReprocessFile(entry)
}

func (o *RefreshOptions) hash(filePath string) (HashedFile, error) {
	if o.Hasher != nil {
		return o.Hasher(filePath)
	}
	return ComputeHashedFile(filePath)
}

// Directory returns the child directory node called name
func (d *HashedDirectory) Directory(name string) (*HashedDirectory, bool) {
	return d.dirs.Get(name)
}

// File returns the cached hash of the child file called name
func (d *HashedDirectory) File(name string) (HashedFile, bool) {
	return d.files.Get(name)
}

// SetDirectory inserts or replaces a child directory node
func (d *HashedDirectory) SetDirectory(name string, child *HashedDirectory) {
	d.dirs.Put(name, child)
}

// SetFile inserts or replaces a child file hash
func (d *HashedDirectory) SetFile(name string, hf HashedFile) {
	d.files.Put(name, hf)
}

// DirectoryNames returns the child directory names in order
func (d *HashedDirectory) DirectoryNames() []string {
	return d.dirs.Names()
}

// FileNames returns the child file names in order
func (d *HashedDirectory) FileNames() []string {
	return d.files.Names()
}

// ForEachDirectory visits child directories in name order until fn returns false
func (d *HashedDirectory) ForEachDirectory(fn func(name string, child *HashedDirectory) bool) {
	d.dirs.ForEach(fn)
}

// ForEachFile visits child files in name order until fn returns false
func (d *HashedDirectory) ForEachFile(fn func(name string, hf HashedFile) bool) {
	d.files.ForEach(fn)
}

// FileCount returns the number of files in the whole subtree
func (d *HashedDirectory) FileCount() int {
	count := d.files.Len()
	d.dirs.ForEach(func(_ string, child *HashedDirectory) bool {
		count += child.FileCount()
		return true
	})
	return count
}

// Refresh brings the subtree in line with the included entries of dirPath.
// Known names are snapshotted as unvisited, each name seen on disk is struck
// off, and whatever remains afterwards is deleted from the tree.
func (d *HashedDirectory) Refresh(dirPath string, opts RefreshOptions) error {
	entries, err := readDirectory(dirPath)
	if err != nil {
		return err
	}
	diskDirs, diskFiles := splitEntries(entries)

	unvisitedDirs := unvisitedSet(d.dirs.Names())
	for _, entry := range diskDirs {
		if !opts.include(entry) {
			continue
		}

		child, ok := d.dirs.Get(entry.Name)
		if !ok {
			child = NewHashedDirectory()
			d.dirs.Put(entry.Name, child)
			debugLog(DebugRefresh, "new directory %s", entry.Path)
		}

		if opts.OnEnterDirectory != nil {
			opts.OnEnterDirectory(entry.Path)
		}
		if err := child.Refresh(entry.Path, opts); err != nil {
			return err
		}
		delete(unvisitedDirs, entry.Name)
	}
	for name := range unvisitedDirs {
		debugLog(DebugRefresh, "dropping directory %s from %s", name, dirPath)
		d.dirs.Delete(name)
	}

	unvisitedFiles := unvisitedSet(d.files.Names())
	for _, entry := range diskFiles {
		if !opts.include(entry) {
			continue
		}

		_, known := d.files.Get(entry.Name)
		if !known || opts.reprocess(entry) {
			hf, err := opts.hash(entry.Path)
			if err != nil {
				return err
			}
			d.files.Put(entry.Name, hf)
			debugLog(DebugRefresh, "hashed %s (known=%v)", entry.Path, known)
		}
		delete(unvisitedFiles, entry.Name)
	}
	for name := range unvisitedFiles {
		debugLog(DebugRefresh, "dropping file %s from %s", name, dirPath)
		d.files.Delete(name)
	}

	return nil
}

func unvisitedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
