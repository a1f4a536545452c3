// Package lock provides an optional advisory cross-process file lock
// for a table's on-disk file, guarding against a second process
// corrupting it mid-write. This is explicitly orthogonal to the
// engine's own single-threaded-caller contract (spec §5): it exists for
// the file being shared with another process, not for concurrent goroutines
// within one process. Adapted from the teacher's pkg/gocore/lock4.go,
// which used syscall.Flock against a package-global lock-manager map;
// here it is a direct per-*os.File call using golang.org/x/sys/unix,
// since the new engine holds one file handle per table rather than a
// shared CodeBase registry.
package lock

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/mkfoss/xbase/pkg/core/xerr"
)

// Lock locks f's entire contents with an exclusive (non-blocking)
// advisory lock.
func Lock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return xerr.WrapDbfError("lock.Lock", "acquiring advisory lock", err)
	}
	return nil
}

// Unlock releases a lock acquired with Lock.
func Unlock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return xerr.WrapDbfError("lock.Unlock", "releasing advisory lock", err)
	}
	return nil
}
