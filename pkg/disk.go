package dirhash

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// EntryKind classifies a directory child
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindOther // symlinks, devices, sockets: never hashed or descended into
)

// DiskEntry is one child of a directory as observed by a single listing.
// Timestamps are only populated for regular files.
type DiskEntry struct {
	Path         string
	Name         string
	Kind         EntryKind
	ModTime      time.Time
	CreateTime   time.Time
	ReadOnly     bool
	HiddenSystem bool
}

// IsDir reports whether the entry is a directory
func (e DiskEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

// ModifiedAfter reports whether the file was created or modified strictly after t
func (e DiskEntry) ModifiedAfter(t time.Time) bool {
	return e.CreateTime.After(t) || e.ModTime.After(t)
}

// readDirectory lists the immediate children of dirPath in name order
func readDirectory(dirPath string) ([]DiskEntry, error) {
	dirEntries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, ioError("list", dirPath, err)
	}

	entries := make([]DiskEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entryPath := filepath.Join(dirPath, de.Name())

		info, err := de.Info()
		if err != nil {
			if os.IsNotExist(err) {
				// Vanished between the listing and the stat
				continue
			}
			return nil, ioError("stat", entryPath, err)
		}

		entry := DiskEntry{
			Path:         entryPath,
			Name:         de.Name(),
			HiddenSystem: isHiddenSystem(info),
		}

		switch {
		case info.IsDir():
			entry.Kind = KindDirectory
		case info.Mode().IsRegular():
			entry.Kind = KindFile
			entry.ModTime = info.ModTime()
			entry.CreateTime = creationTime(entryPath, info)
			entry.ReadOnly = info.Mode().Perm()&0200 == 0
		default:
			entry.Kind = KindOther
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// splitEntries separates a listing into directories and files, dropping other kinds
func splitEntries(entries []DiskEntry) (dirs, files []DiskEntry) {
	for _, e := range entries {
		switch e.Kind {
		case KindDirectory:
			dirs = append(dirs, e)
		case KindFile:
			files = append(files, e)
		}
	}
	return dirs, files
}

// isDirectoryEmpty reports whether dirPath has no children of any kind
func isDirectoryEmpty(dirPath string) (bool, error) {
	f, err := os.Open(dirPath)
	if err != nil {
		return false, ioError("open", dirPath, err)
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if len(names) > 0 {
		return false, nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, ioError("list", dirPath, err)
	}
	return true, nil
}

// clearReadOnly makes a file writable so that it can be deleted everywhere
func clearReadOnly(entry DiskEntry) error {
	if !entry.ReadOnly {
		return nil
	}
	info, err := os.Lstat(entry.Path)
	if err != nil {
		return ioError("stat", entry.Path, err)
	}
	if err := os.Chmod(entry.Path, info.Mode().Perm()|0200); err != nil {
		return ioError("clear read-only flag on", entry.Path, err)
	}
	return nil
}

// sameFile reports whether two paths name the same file on disk, which also
// catches symlinked or bind-mounted aliases and hard links.
func sameFile(a, b string) (bool, error) {
	if a == b {
		return true, nil
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false, ioError("stat", a, err)
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, ioError("stat", b, err)
	}
	return os.SameFile(infoA, infoB), nil
}

// removeFile deletes a single file
func removeFile(filePath string) error {
	if err := os.Remove(filePath); err != nil {
		return ioError("delete", filePath, err)
	}
	return nil
}

// removeEmptyDirectory deletes a directory that must already be empty
func removeEmptyDirectory(dirPath string) error {
	if err := os.Remove(dirPath); err != nil {
		return ioError("remove directory", dirPath, err)
	}
	return nil
}
