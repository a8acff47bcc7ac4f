package discovery

import (
	"fmt"
	"net/netip"
	"time"
)

// Peer is one observation of another instance on the local network.
type Peer struct {
	ID       string
	Name     string
	Addr     netip.AddrPort
	LastSeen time.Time
}

func (p Peer) String() string {
	return fmt.Sprintf("%s (%s) at %s", p.Name, p.ID, p.Addr)
}
