//go:build !linux && !windows

package dirhash

import (
	"os"
	"time"
)

// creationTime falls back to the modification time where no portable birth time exists
func creationTime(path string, info os.FileInfo) time.Time {
	return info.ModTime()
}

func isHiddenSystem(info os.FileInfo) bool {
	return false
}
