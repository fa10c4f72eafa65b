package cmd

import (
	"fmt"
	"runtime"

	"github.com/cocoonstack/macshift/config"
	"github.com/cocoonstack/macshift/guard"
	"github.com/cocoonstack/macshift/link"
	"github.com/cocoonstack/macshift/link/iproute"
	"github.com/cocoonstack/macshift/link/nl"
	"github.com/cocoonstack/macshift/lock"
	"github.com/cocoonstack/macshift/lock/flock"
)

// backends builds the capabilities a change needs from the loaded config.
type backends struct {
	link     func(conf *config.Config) (link.Controller, func() error, error)
	identity func(conf *config.Config) guard.Identity
	locker   func(conf *config.Config, iface string) lock.Locker
	goos     string
}

func defaultBackends() backends {
	return backends{
		link:     initLink,
		identity: func(conf *config.Config) guard.Identity { return guard.CommandIdentity{Binary: conf.IDBinary} },
		locker:   initLocker,
		goos:     runtime.GOOS,
	}
}

// initLink opens the configured link backend. The returned func releases it.
func initLink(conf *config.Config) (link.Controller, func() error, error) {
	switch conf.Backend {
	case config.BackendNetlink:
		h, err := nl.New(conf.Netns)
		if err != nil {
			return nil, nil, fmt.Errorf("init netlink backend: %w", err)
		}
		return h, h.Close, nil
	default:
		return iproute.New(conf.IPBinary, conf.Netns), func() error { return nil }, nil
	}
}

func initLocker(conf *config.Config, iface string) lock.Locker {
	if conf.LockDir == "" {
		return lock.Nop{}
	}
	return flock.ForInterface(conf.LockDir, iface)
}
