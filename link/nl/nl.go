package nl

import (
	"fmt"
	"net"
	"strings"

	"github.com/cocoonstack/macshift/link"
)

const typ = "netlink"

// compile-time interface check.
var _ link.Controller = (*Netlink)(nil)

func (n *Netlink) Type() string { return typ }

// attrs is the subset of link attributes rendered by Show.
type attrs struct {
	Index     int
	Name      string
	Flags     net.Flags
	MTU       int
	OperState string
	EncapType string
	HardAddr  net.HardwareAddr
}

// render formats attrs the way "ip link show" prints a link, so the same
// address extraction applies to both backends.
func render(a attrs) string {
	var flags []string
	if a.Flags&net.FlagBroadcast != 0 {
		flags = append(flags, "BROADCAST")
	}
	if a.Flags&net.FlagLoopback != 0 {
		flags = append(flags, "LOOPBACK")
	}
	if a.Flags&net.FlagPointToPoint != 0 {
		flags = append(flags, "POINTOPOINT")
	}
	if a.Flags&net.FlagMulticast != 0 {
		flags = append(flags, "MULTICAST")
	}
	if a.Flags&net.FlagUp != 0 {
		flags = append(flags, "UP")
	}
	encap := a.EncapType
	if encap == "" {
		encap = "none"
	}
	head := fmt.Sprintf("%d: %s: <%s> mtu %d state %s\n", a.Index, a.Name, strings.Join(flags, ","), a.MTU, strings.ToUpper(a.OperState))
	if len(a.HardAddr) == 0 {
		return head + fmt.Sprintf("    link/%s\n", encap)
	}
	return head + fmt.Sprintf("    link/%s %s brd ff:ff:ff:ff:ff:ff\n", encap, a.HardAddr)
}
