//go:build windows

package dirhash

import (
	"os"
	"syscall"
	"time"
)

func creationTime(path string, info os.FileInfo) time.Time {
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, data.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}

// isHiddenSystem reports entries carrying both the hidden and system attributes,
// such as "System Volume Information", which are always skipped
func isHiddenSystem(info os.FileInfo) bool {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return false
	}
	const mask = syscall.FILE_ATTRIBUTE_HIDDEN | syscall.FILE_ATTRIBUTE_SYSTEM
	return data.FileAttributes&mask == mask
}
