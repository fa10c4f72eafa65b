package flock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/cocoonstack/macshift/lock"
	"github.com/cocoonstack/macshift/utils"
)

const retryDelay = 100 * time.Millisecond

// ErrBadName is returned for interface names that cannot name a file
// inside the lock directory.
var ErrBadName = errors.New("interface name not usable as a lock file")

// compile-time interface check.
var _ lock.Locker = (*Lock)(nil)

// Lock is an flock(2) on DIR/IFACE.lock. Lock files are left in place.
type Lock struct {
	fl    *flock.Flock
	iface string
}

// ForInterface returns the lock guarding iface under dir.
// Names that would escape dir are refused by Lock.
func ForInterface(dir, iface string) *Lock {
	return &Lock{fl: flock.New(filepath.Join(dir, iface+".lock")), iface: iface}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Lock blocks until the flock is held or ctx is done.
// The lock directory is created on first use.
func (l *Lock) Lock(ctx context.Context) error {
	if !validName(l.iface) {
		return fmt.Errorf("%w: %q", ErrBadName, l.iface)
	}
	if err := utils.EnsureDirs(filepath.Dir(l.fl.Path())); err != nil {
		return err
	}
	locked, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		return fmt.Errorf("acquire flock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire flock %s: context done", l.fl.Path())
	}
	return nil
}

// Unlock releases the flock.
func (l *Lock) Unlock(_ context.Context) error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release flock %s: %w", l.fl.Path(), err)
	}
	return nil
}

// validName matches what the kernel accepts as an interface name:
// non-empty, no '/', and not "." or "..".
func validName(iface string) bool {
	return iface != "" && iface != "." && iface != ".." && !strings.ContainsRune(iface, '/')
}
