package dirhash

// ApplySettings pushes the verbose and debug settings into the package loggers
// and returns the hash buffer size to use.
func ApplySettings(s *Settings) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	verbose := s.GetVerboseConfig()
	SetVerboseLevel(verbose.Level)
	if verbose.Debug != "" {
		SetDebugFlags(verbose.Debug)
	}

	return s.HashBufferSize()
}

// RecomputeAndSave recomputes rootDir and writes the store while holding its lock
func RecomputeAndSave(rootDir string, opts StoreOptions) (*Store, error) {
	var store *Store
	err := WithStoreLock(rootDir, func() error {
		s, err := Recompute(rootDir, opts)
		if err != nil {
			return err
		}
		store = s
		return s.Save()
	})
	return store, err
}

// UpdateAndSave loads, updates and writes the store of rootDir while holding its lock
func UpdateAndSave(rootDir string, opts StoreOptions) (*Store, error) {
	var store *Store
	err := WithStoreLock(rootDir, func() error {
		s, err := LoadStore(rootDir)
		if err != nil {
			return err
		}
		if err := s.Update(opts); err != nil {
			return err
		}
		store = s
		return s.Save()
	})
	return store, err
}

// PurgeDirectories loads the target and source stores and purges the target while
// holding the target's lock. Source stores are only read.
func PurgeDirectories(targetDir string, sourceDirs []string, opts PurgeOptions) (*PurgeReport, error) {
	var report *PurgeReport
	err := WithStoreLock(targetDir, func() error {
		target, err := LoadStore(targetDir)
		if err != nil {
			return err
		}

		sources := make([]*Store, 0, len(sourceDirs))
		for _, dir := range sourceDirs {
			source, err := LoadStore(dir)
			if err != nil {
				return err
			}
			sources = append(sources, source)
		}

		report, err = Purge(target, sources, opts)
		return err
	})
	return report, err
}
