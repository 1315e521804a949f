//go:build linux

package dirhash

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// creationTime returns the birth time reported by statx. Filesystems that do not
// record a birth time fall back to the inode change time, which is never earlier.
func creationTime(path string, info os.FileInfo) time.Time {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME|unix.STATX_CTIME, &stx)
	if err == nil {
		if stx.Mask&unix.STATX_BTIME != 0 {
			return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
		}
		if stx.Mask&unix.STATX_CTIME != 0 {
			return time.Unix(stx.Ctime.Sec, int64(stx.Ctime.Nsec))
		}
	}

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}

// isHiddenSystem has no equivalent on Linux
func isHiddenSystem(info os.FileInfo) bool {
	return false
}
