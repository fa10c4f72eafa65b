package iproute

import (
	cns "github.com/containernetworking/plugins/pkg/ns"
)

// inNetns runs fn on a thread switched into nsPath. The child process
// forked by fn inherits that namespace. Empty nsPath runs fn in place.
func inNetns(nsPath string, fn func() error) error {
	if nsPath == "" {
		return fn()
	}
	return cns.WithNetNSPath(nsPath, func(_ cns.NetNS) error {
		return fn()
	})
}
