//go:build !linux

package iproute

import "github.com/cocoonstack/macshift/link"

func inNetns(nsPath string, fn func() error) error {
	if nsPath == "" {
		return fn()
	}
	return link.ErrNotSupported
}
