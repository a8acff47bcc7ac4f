package node

import (
	"net/netip"
	"os"
	"path/filepath"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
	"github.com/rudransh-shrivastava/peer-drop/internal/protocol"
)

const socketName = "peerdrop.sock"

// DefaultSocketPath is where the daemon listens for local clients.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), socketName)
}

// peerAddress combines the address a peer announced from with the port
// instances accept transfers on.
func peerAddress(p discovery.Peer, port int) string {
	return netip.AddrPortFrom(p.Addr.Addr(), uint16(port)).String()
}

func peerInfo(p discovery.Peer) protocol.PeerInfo {
	return protocol.PeerInfo{
		ID:       p.ID,
		Name:     p.Name,
		Addr:     p.Addr.String(),
		LastSeen: p.LastSeen.UnixMilli(),
	}
}
