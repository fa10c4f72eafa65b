package link

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by backends on platforms without Linux links.
var ErrNotSupported = errors.New("link operations are only supported on linux")

// Controller queries and mutates a single network interface.
type Controller interface {
	Type() string

	// Show returns the backend's "show link" text for iface.
	Show(ctx context.Context, iface string) (string, error)
	Down(ctx context.Context, iface string) error
	SetAddress(ctx context.Context, iface, mac string) error
	Up(ctx context.Context, iface string) error
}

// Exists reports whether the "show link" query for iface succeeds.
func Exists(ctx context.Context, c Controller, iface string) bool {
	_, err := c.Show(ctx, iface)
	return err == nil
}
