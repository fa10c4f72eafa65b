//go:build !linux

package nl

import (
	"context"

	"github.com/cocoonstack/macshift/link"
)

type Netlink struct{}

func New(_ string) (*Netlink, error) { return nil, link.ErrNotSupported }

func (n *Netlink) Close() error { return nil }

func (n *Netlink) Show(_ context.Context, _ string) (string, error) {
	return "", link.ErrNotSupported
}

func (n *Netlink) Down(_ context.Context, _ string) error { return link.ErrNotSupported }

func (n *Netlink) SetAddress(_ context.Context, _, _ string) error { return link.ErrNotSupported }

func (n *Netlink) Up(_ context.Context, _ string) error { return link.ErrNotSupported }
