package discovery

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestParseAnnouncement(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		wantID string
		wantNm string
		wantOK bool
	}{
		{"valid", []byte("DISCOVERY:abc:Laptop\n"), "abc", "Laptop", true},
		{"no newline", []byte("DISCOVERY:abc:Laptop"), "abc", "Laptop", true},
		{"crlf", []byte("DISCOVERY:abc:Laptop\r\n"), "abc", "Laptop", true},
		{"colon in name", []byte("DISCOVERY:abc:Room: 12\n"), "abc", "Room: 12", true},
		{"empty name", []byte("DISCOVERY:abc:\n"), "abc", "", true},
		{"missing name separator", []byte("DISCOVERY:abc\n"), "", "", false},
		{"empty id", []byte("DISCOVERY::Laptop\n"), "", "", false},
		{"wrong prefix", []byte("HELLO:abc:Laptop\n"), "", "", false},
		{"lowercase prefix", []byte("discovery:abc:Laptop\n"), "", "", false},
		{"invalid utf8", []byte{'D', 'I', 'S', 'C', 'O', 'V', 'E', 'R', 'Y', ':', 0xff, ':', 'x'}, "", "", false},
		{"empty", nil, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name, ok := ParseAnnouncement(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantNm, name)
		})
	}
}

func TestEncodeAnnouncement(t *testing.T) {
	msg := EncodeAnnouncement("0f8fad5b-d9cb-469f-a165-70867728950e", "Desk PC")
	assert.Equal(t, "DISCOVERY:0f8fad5b-d9cb-469f-a165-70867728950e:Desk PC\n", string(msg))

	id, name, ok := ParseAnnouncement(msg)
	require.True(t, ok)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", id)
	assert.Equal(t, "Desk PC", name)

	long := EncodeAnnouncement("0f8fad5b-d9cb-469f-a165-70867728950e", strings.Repeat("n", MaxNameLength))
	assert.Less(t, len(long), 1024)
}

func TestObserveSuppressesSelf(t *testing.T) {
	d := newDiscovery(Config{Name: "me", ID: "self-id", Logger: quietLogger()}.withDefaults())
	src := netip.MustParseAddrPort("192.168.1.10:5353")

	_, ok := d.observe(EncodeAnnouncement("self-id", "me"), src)
	assert.False(t, ok, "own announcement must not produce a peer")

	peer, ok := d.observe(EncodeAnnouncement("other-id", "them"), src)
	require.True(t, ok)
	assert.Equal(t, "other-id", peer.ID)
	assert.Equal(t, "them", peer.Name)
	assert.Equal(t, src, peer.Addr)
	assert.False(t, peer.LastSeen.IsZero())
}

func TestObserveUnmapsAddress(t *testing.T) {
	d := newDiscovery(Config{Name: "me", Logger: quietLogger()}.withDefaults())
	src := netip.AddrPortFrom(netip.MustParseAddr("::ffff:10.0.0.7"), 5353)

	peer, ok := d.observe(EncodeAnnouncement("x", "y"), src)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.7:5353", peer.Addr.String())
}

func TestObserveIgnoresGarbage(t *testing.T) {
	d := newDiscovery(Config{Name: "me", Logger: quietLogger()}.withDefaults())
	src := netip.MustParseAddrPort("10.0.0.7:5353")

	for _, data := range [][]byte{
		[]byte("\x00\x01\x02"),
		[]byte("_services._dns-sd._udp.local"),
		{0xc3, 0x28},
	} {
		_, ok := d.observe(data, src)
		assert.False(t, ok)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Name: "me"}.withDefaults()

	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, DefaultGroup, cfg.Group)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultQueueSize, cfg.QueueSize)
	assert.NotNil(t, cfg.Logger)

	other := Config{Name: "me"}.withDefaults()
	assert.NotEqual(t, cfg.ID, other.ID, "every instance gets a fresh id")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{Name: "Laptop", ID: "abc"}, false},
		{"empty name", Config{Name: "", ID: "abc"}, true},
		{"newline in name", Config{Name: "a\nb", ID: "abc"}, true},
		{"name too long", Config{Name: strings.Repeat("x", MaxNameLength+1), ID: "abc"}, true},
		{"colon in id", Config{Name: "Laptop", ID: "a:b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsNonMulticastGroup(t *testing.T) {
	_, err := New(Config{Name: "me", Group: "127.0.0.1:5353", Logger: quietLogger()})
	assert.Error(t, err)
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

// Two instances on one host see each other through multicast loopback.
func TestDiscoveryLoopback(t *testing.T) {
	group := net.JoinHostPort("239.255.77.77", strconv.Itoa(freeUDPPort(t)))

	a, err := New(Config{Name: "alpha", Group: group, Interval: 100 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Skipf("multicast unavailable: %v", err)
	}
	defer func() { _ = a.Close() }()

	b, err := New(Config{Name: "beta", Group: group, Interval: 100 * time.Millisecond, Logger: quietLogger()})
	if err != nil {
		t.Skipf("multicast unavailable: %v", err)
	}
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.Start(ctx)
	b.Start(ctx)

	for {
		select {
		case peer := <-a.Peers():
			require.NotEqual(t, a.ID(), peer.ID, "self announcement leaked")
			if peer.ID == b.ID() {
				assert.Equal(t, "beta", peer.Name)
				return
			}
		case <-ctx.Done():
			t.Skip("no multicast loopback delivery in this environment")
		}
	}
}
