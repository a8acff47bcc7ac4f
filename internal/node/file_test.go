package node

import (
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/rudransh-shrivastava/peer-drop/internal/discovery"
)

func TestDefaultSocketPath(t *testing.T) {
	path := DefaultSocketPath()
	if filepath.Base(path) != "peerdrop.sock" {
		t.Errorf("expected socket file peerdrop.sock, got %s", path)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %s", path)
	}
}

func TestPeerAddress(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		port     int
		expected string
	}{
		{"ipv4", "192.168.1.20:5353", 5000, "192.168.1.20:5000"},
		{"ipv6", "[fe80::1]:5353", 6000, "[fe80::1]:6000"},
		{"loopback", "127.0.0.1:40000", 5000, "127.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := discovery.Peer{Addr: netip.MustParseAddrPort(tt.addr)}
			if got := peerAddress(p, tt.port); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestPeerInfo(t *testing.T) {
	seen := time.UnixMilli(1700000000123)
	info := peerInfo(discovery.Peer{
		ID:       "abc",
		Name:     "laptop",
		Addr:     netip.MustParseAddrPort("10.0.0.5:5353"),
		LastSeen: seen,
	})

	if info.ID != "abc" || info.Name != "laptop" {
		t.Errorf("unexpected identity %+v", info)
	}
	if info.Addr != "10.0.0.5:5353" {
		t.Errorf("expected addr 10.0.0.5:5353, got %s", info.Addr)
	}
	if info.LastSeen != seen.UnixMilli() {
		t.Errorf("expected last seen %d, got %d", seen.UnixMilli(), info.LastSeen)
	}
}
