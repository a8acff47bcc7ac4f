package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rudransh-shrivastava/peer-drop/internal/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

const (
	DefaultGroup     = "224.0.0.251:5353"
	DefaultInterval  = 5 * time.Second
	DefaultQueueSize = 100

	receiveErrorBackoff = 200 * time.Millisecond
)

var ErrInvalidName = errors.New("discovery: invalid device name")

type Config struct {
	// Name is the display name advertised to other instances.
	Name string
	// ID defaults to a fresh random uuid.
	ID string
	// Group is the multicast group and port, "224.0.0.251:5353" by default.
	Group    string
	Interval time.Duration
	// Interfaces to join the group on; every up multicast interface when nil.
	Interfaces []net.Interface
	QueueSize  int
	Logger     *logrus.Logger
}

func (c Config) withDefaults() Config {
	out := c
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Group == "" {
		out.Group = DefaultGroup
	}
	if out.Interval <= 0 {
		out.Interval = DefaultInterval
	}
	if out.QueueSize <= 0 {
		out.QueueSize = DefaultQueueSize
	}
	if out.Logger == nil {
		out.Logger = logger.NewLogger()
	}
	return out
}

func (c Config) validate() error {
	if c.Name == "" || len(c.Name) > MaxNameLength || strings.ContainsAny(c.Name, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if strings.Contains(c.ID, ":") {
		return fmt.Errorf("discovery: instance id must not contain ':'")
	}
	return nil
}

// Discovery advertises this instance on a multicast group and reports every
// other instance it hears there.
type Discovery struct {
	cfg   Config
	group *net.UDPAddr
	log   *logrus.Entry
	now   func() time.Time

	recv  *net.UDPConn
	send  *net.UDPConn
	peers chan Peer

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New binds the listening socket and joins the group. Nothing is sent or
// received until Start.
func New(cfg Config) (*Discovery, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve group: %w", err)
	}
	if !group.IP.IsMulticast() {
		return nil, fmt.Errorf("discovery: %s is not a multicast address", group.IP)
	}

	d := newDiscovery(cfg)
	d.group = group

	if err := d.bind(); err != nil {
		d.closeSockets()
		return nil, err
	}
	return d, nil
}

func newDiscovery(cfg Config) *Discovery {
	return &Discovery{
		cfg:   cfg,
		log:   cfg.Logger.WithField("component", "discovery"),
		now:   time.Now,
		peers: make(chan Peer, cfg.QueueSize),
	}
}

func (d *Discovery) bind() error {
	lc := net.ListenConfig{Control: reuseControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", d.group.Port))
	if err != nil {
		return fmt.Errorf("discovery: bind listener: %w", err)
	}
	d.recv = pc.(*net.UDPConn)

	recvPC := ipv4.NewPacketConn(d.recv)
	joined, err := joinGroup(recvPC, d.group, d.cfg.Interfaces)
	if err != nil {
		return fmt.Errorf("discovery: join %s: %w", d.group.IP, err)
	}
	d.log.Debugf("Joined multicast group %s on %d interface(s)", d.group, joined)

	d.send, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return fmt.Errorf("discovery: bind sender: %w", err)
	}

	sendPC := ipv4.NewPacketConn(d.send)
	if err := sendPC.SetMulticastLoopback(true); err != nil {
		d.log.WithError(err).Debug("Could not enable multicast loopback")
	}
	if err := sendPC.SetMulticastTTL(1); err != nil {
		d.log.WithError(err).Debug("Could not set multicast TTL")
	}
	return nil
}

func joinGroup(pc *ipv4.PacketConn, group *net.UDPAddr, ifaces []net.Interface) (int, error) {
	if ifaces == nil {
		all, err := net.Interfaces()
		if err == nil {
			for _, iface := range all {
				if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagMulticast != 0 {
					ifaces = append(ifaces, iface)
				}
			}
		}
	}

	joined := 0
	for i := range ifaces {
		if err := pc.JoinGroup(&ifaces[i], &net.UDPAddr{IP: group.IP}); err == nil {
			joined++
		}
	}
	if joined > 0 {
		return joined, nil
	}

	if err := pc.JoinGroup(nil, &net.UDPAddr{IP: group.IP}); err != nil {
		return 0, err
	}
	return 1, nil
}

// ID is this instance's identifier, as advertised.
func (d *Discovery) ID() string {
	return d.cfg.ID
}

// Peers yields every observation of another instance. It is never closed
// while the Discovery runs.
func (d *Discovery) Peers() <-chan Peer {
	return d.peers
}

// Start launches the advertiser and the listener. They run until ctx is
// cancelled or Close is called.
func (d *Discovery) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		ctx, d.cancel = context.WithCancel(ctx)

		d.wg.Add(2)
		go d.advertise(ctx)
		go d.listen(ctx)

		d.log.WithFields(logrus.Fields{"id": d.cfg.ID, "name": d.cfg.Name, "group": d.group}).Info("Discovery started")
	})
}

func (d *Discovery) Close() error {
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		d.closeSockets()
		d.wg.Wait()
	})
	return nil
}

func (d *Discovery) closeSockets() {
	if d.recv != nil {
		_ = d.recv.Close()
	}
	if d.send != nil {
		_ = d.send.Close()
	}
}

func (d *Discovery) advertise(ctx context.Context) {
	defer d.wg.Done()

	msg := EncodeAnnouncement(d.cfg.ID, d.cfg.Name)
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := d.send.WriteToUDP(msg, d.group); err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			d.log.WithError(err).Warn("Failed to send announcement")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Discovery) listen(ctx context.Context) {
	defer d.wg.Done()

	buf := make([]byte, maxDatagramSize)
	for {
		n, src, err := d.recv.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			d.log.WithError(err).Warn("Discovery receive failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}

		peer, ok := d.observe(buf[:n], src)
		if !ok {
			continue
		}

		select {
		case d.peers <- peer:
		case <-ctx.Done():
			return
		}
	}
}

// observe turns one datagram into a Peer. Foreign traffic on the group and
// our own announcements are dropped.
func (d *Discovery) observe(data []byte, src netip.AddrPort) (Peer, bool) {
	id, name, ok := ParseAnnouncement(data)
	if !ok {
		return Peer{}, false
	}
	if id == d.cfg.ID {
		return Peer{}, false
	}

	return Peer{
		ID:       id,
		Name:     name,
		Addr:     netip.AddrPortFrom(src.Addr().Unmap(), src.Port()),
		LastSeen: d.now(),
	}, true
}
