package dirhash

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// StoreLock is the advisory single-writer lock of one hashed root (Hashes.xml.lock)
type StoreLock struct {
	flock *flock.Flock
	path  string
}

// NewStoreLock creates the lock for the store in rootDir
func NewStoreLock(rootDir string) *StoreLock {
	lockPath := filepath.Join(rootDir, StoreFileName+LockSuffix)
	return &StoreLock{
		flock: flock.New(lockPath),
		path:  lockPath,
	}
}

// Path returns the lock file path
func (sl *StoreLock) Path() string {
	return sl.path
}

// Acquire takes the lock without blocking; a lock held elsewhere yields ErrLocked
func (sl *StoreLock) Acquire() error {
	acquired, err := sl.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", sl.path, err)
	}
	if !acquired {
		return fmt.Errorf("%s: %w", sl.path, ErrLocked)
	}
	debugLog(DebugStore, "acquired %s", sl.path)
	return nil
}

// Release drops the lock and removes the lock file
func (sl *StoreLock) Release() error {
	if !sl.flock.Locked() {
		return nil
	}
	if err := sl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", sl.path, err)
	}
	if err := os.Remove(sl.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", sl.path, err)
	}
	debugLog(DebugStore, "released %s", sl.path)
	return nil
}

// WithStoreLock runs fn while holding the lock of rootDir
func WithStoreLock(rootDir string, fn func() error) (err error) {
	lock := NewStoreLock(rootDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn()
}

// atomicWrite streams content into a temp file next to path, syncs it, and renames it
// into place so readers never observe a partially written store.
func atomicWrite(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return ioError("create temp file in", dir, err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	buffered := bufio.NewWriter(tempFile)
	if err := write(buffered); err != nil {
		return err
	}
	if err := buffered.Flush(); err != nil {
		return ioError("write", tempPath, err)
	}

	if err := tempFile.Sync(); err != nil {
		return ioError("sync", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		return ioError("close", tempPath, err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return ioError("chmod", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return ioError("rename", tempPath, err)
	}

	tempFile = nil
	return nil
}
