package nl

import (
	"context"
	"fmt"
	"net"

	"github.com/projecteru2/core/log"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// Netlink drives interfaces through rtnetlink directly, without iproute2.
type Netlink struct {
	handle *netlink.Handle
}

// New opens a netlink handle. A non-empty nsPath binds the handle to that
// network namespace; otherwise the current namespace is used.
func New(nsPath string) (*Netlink, error) {
	if nsPath == "" {
		h, err := netlink.NewHandle()
		if err != nil {
			return nil, fmt.Errorf("open netlink handle: %w", err)
		}
		return &Netlink{handle: h}, nil
	}
	ns, err := netns.GetFromPath(nsPath)
	if err != nil {
		return nil, fmt.Errorf("open netns %s: %w", nsPath, err)
	}
	defer ns.Close() //nolint:errcheck
	h, err := netlink.NewHandleAt(ns)
	if err != nil {
		return nil, fmt.Errorf("open netlink handle in %s: %w", nsPath, err)
	}
	return &Netlink{handle: h}, nil
}

// Close releases the netlink sockets.
func (n *Netlink) Close() error {
	n.handle.Close()
	return nil
}

// Show looks iface up and renders it in "ip link show" form.
func (n *Netlink) Show(_ context.Context, iface string) (string, error) {
	l, err := n.handle.LinkByName(iface)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", iface, err)
	}
	la := l.Attrs()
	return render(attrs{
		Index:     la.Index,
		Name:      la.Name,
		Flags:     la.Flags,
		MTU:       la.MTU,
		OperState: la.OperState.String(),
		EncapType: la.EncapType,
		HardAddr:  la.HardwareAddr,
	}), nil
}

// Down sets iface administratively down.
func (n *Netlink) Down(ctx context.Context, iface string) error {
	l, err := n.handle.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("find %s: %w", iface, err)
	}
	log.WithFunc("nl.Down").Infof(ctx, "set %s down", iface)
	if err := n.handle.LinkSetDown(l); err != nil {
		return fmt.Errorf("set %s down: %w", iface, err)
	}
	return nil
}

// SetAddress sets the hardware address of iface. The address is parsed by
// net.ParseMAC first, so non-hex strings fail here rather than in the kernel.
func (n *Netlink) SetAddress(ctx context.Context, iface, mac string) error {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return fmt.Errorf("parse address %q: %w", mac, err)
	}
	l, err := n.handle.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("find %s: %w", iface, err)
	}
	log.WithFunc("nl.SetAddress").Infof(ctx, "set %s address %s", iface, hw)
	if err := n.handle.LinkSetHardwareAddr(l, hw); err != nil {
		return fmt.Errorf("set %s address %s: %w", iface, hw, err)
	}
	return nil
}

// Up sets iface administratively up.
func (n *Netlink) Up(ctx context.Context, iface string) error {
	l, err := n.handle.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("find %s: %w", iface, err)
	}
	log.WithFunc("nl.Up").Infof(ctx, "set %s up", iface)
	if err := n.handle.LinkSetUp(l); err != nil {
		return fmt.Errorf("set %s up: %w", iface, err)
	}
	return nil
}
