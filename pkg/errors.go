package dirhash

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreNotFound is returned when a command needs a store that has never been written
	ErrStoreNotFound = errors.New("no " + StoreFileName + " found, run recompute first")

	// ErrLocked is returned when another process holds the store lock
	ErrLocked = errors.New("store is locked by another process")
)

// ConfigurationError reports a malformed exclude configuration document
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// StoreFormatError reports a missing or malformed store document
type StoreFormatError struct {
	Path string
	Err  error
}

func (e *StoreFormatError) Error() string {
	return fmt.Sprintf("invalid store %s: %v", e.Path, e.Err)
}

func (e *StoreFormatError) Unwrap() error { return e.Err }

// IoError reports a failed filesystem operation on a single path
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// PatternError reports an exclude pattern that cannot be used
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

func ioError(op, path string, err error) error {
	return &IoError{Op: op, Path: path, Err: err}
}
