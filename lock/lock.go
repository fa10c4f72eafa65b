package lock

import "context"

// Locker serializes changes to one interface across processes.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Nop is a Locker that never blocks, used when locking is disabled.
type Nop struct{}

func (Nop) Lock(context.Context) error   { return nil }
func (Nop) Unlock(context.Context) error { return nil }

// WithLock acquires l, calls fn, and releases l even when fn fails.
func WithLock(ctx context.Context, l Locker, fn func() error) error {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer l.Unlock(ctx) //nolint:errcheck
	return fn()
}
