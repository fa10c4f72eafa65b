package iproute

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/cocoonstack/macshift/link"
)

const typ = "iproute"

// compile-time interface check.
var _ link.Controller = (*IPRoute)(nil)

// IPRoute drives interfaces through the iproute2 "ip" binary.
type IPRoute struct {
	binary string
	netns  string
}

// New returns an IPRoute running binary. A non-empty netns path makes
// every invocation run inside that network namespace.
func New(binary, netns string) *IPRoute {
	if binary == "" {
		binary = "ip"
	}
	return &IPRoute{binary: binary, netns: netns}
}

func (r *IPRoute) Type() string { return typ }

// Show runs "ip link show IFACE" and returns its stdout.
func (r *IPRoute) Show(ctx context.Context, iface string) (string, error) {
	return r.run(ctx, "link", "show", iface)
}

// Down runs "ip link set IFACE down".
func (r *IPRoute) Down(ctx context.Context, iface string) error {
	_, err := r.run(ctx, "link", "set", iface, "down")
	return err
}

// SetAddress runs "ip link set dev IFACE address MAC".
func (r *IPRoute) SetAddress(ctx context.Context, iface, mac string) error {
	_, err := r.run(ctx, "link", "set", "dev", iface, "address", mac)
	return err
}

// Up runs "ip link set IFACE up".
func (r *IPRoute) Up(ctx context.Context, iface string) error {
	_, err := r.run(ctx, "link", "set", iface, "up")
	return err
}

func (r *IPRoute) run(ctx context.Context, args ...string) (string, error) {
	line := r.binary + " " + strings.Join(args, " ")
	log.WithFunc("iproute.run").Infof(ctx, "exec: %s", line)

	var stdout, stderr bytes.Buffer
	err := inNetns(r.netns, func() error {
		cmd := exec.CommandContext(ctx, r.binary, args...) //nolint:gosec // binary comes from config
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		return cmd.Run()
	})
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s: %w: %s", line, err, msg)
		}
		return stdout.String(), fmt.Errorf("%s: %w", line, err)
	}
	return stdout.String(), nil
}
