package utils

import (
	"fmt"
	"os"
)

// EnsureDirs creates each directory (and parents) with 0o755 permissions.
func EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("mkdir %s: %w", d, err)
		}
	}
	return nil
}
