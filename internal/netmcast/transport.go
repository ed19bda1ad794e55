package netmcast

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// GroupAddr is the discovery multicast group address.
const GroupAddr = "239.255.255.250"

// SendPort is the destination port for outbound discovery datagrams.
const SendPort = 1900

// ListenPortPrimary is the first port the listener tries to bind.
const ListenPortPrimary = 50569

// listenPortFallback is tried in order after ListenPortPrimary is taken.
// When all of these are also in use, NewListener binds to an ephemeral
// port instead (port 0).
var listenPortFallback = []int{50570, 50571, 50572, 50573, 50574, 50575, 50576, 50577, 50578}

var (
	// ErrNoInterfaces indicates no usable multicast-capable interface was found.
	ErrNoInterfaces = errors.New("netmcast: no usable interfaces")

	// ErrSocketClosed indicates an operation on an already-closed connection.
	ErrSocketClosed = errors.New("netmcast: socket closed")
)

// UsableInterfaces returns the network interfaces this host can send and
// listen for discovery multicast traffic on: up, multicast-capable, and
// carrying at least one non-loopback, non-link-local IPv4 address.
func UsableInterfaces() ([]net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netmcast: list interfaces: %w", err)
	}

	var usable []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if hasUsableIPv4(iface) {
			usable = append(usable, iface)
		}
	}

	if len(usable) == 0 {
		return nil, ErrNoInterfaces
	}
	return usable, nil
}

func hasUsableIPv4(iface net.Interface) bool {
	addrs, err := iface.Addrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return true
	}
	return false
}

// Sender sends discovery datagrams to the multicast group, once per
// usable interface, so that multi-homed hosts reach gateways on every
// attached subnet.
type Sender struct {
	group *net.UDPAddr
}

// NewSender creates a Sender that addresses its datagrams to
// GroupAddr:SendPort.
func NewSender() (*Sender, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(GroupAddr), Port: SendPort}
	return &Sender{group: addr}, nil
}

// SendOn transmits payload to the multicast group over the given interface.
func (s *Sender) SendOn(iface net.Interface, payload []byte) error {
	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return fmt.Errorf("netmcast: open send socket on %s: %w", iface.Name, err)
	}
	defer conn.Close()

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastInterface(&iface); err != nil {
		return fmt.Errorf("netmcast: set multicast interface %s: %w", iface.Name, err)
	}
	if err := pc.SetMulticastTTL(1); err != nil {
		return fmt.Errorf("netmcast: set multicast ttl on %s: %w", iface.Name, err)
	}

	if _, err := pc.WriteTo(payload, nil, s.group); err != nil {
		return fmt.Errorf("netmcast: send on %s: %w", iface.Name, err)
	}
	return nil
}

// Listener receives discovery replies on the multicast group, joined on
// every usable interface, bound to the first available port in the
// ListenPortPrimary / fallback sequence.
type Listener struct {
	pc   *ipv4.PacketConn
	conn net.PacketConn
	port int
}

// NewListener binds a listener socket, joins the multicast group on every
// usable interface, and returns the Listener. Port selection tries
// ListenPortPrimary, then listenPortFallback in order, then falls back to
// an ephemeral port.
func NewListener(ifaces []net.Interface) (*Listener, error) {
	ports := append([]int{ListenPortPrimary}, listenPortFallback...)

	var lastErr error
	for _, port := range ports {
		l, err := bindListener(ifaces, port)
		if err == nil {
			return l, nil
		}
		lastErr = err
	}

	l, err := bindListener(ifaces, 0)
	if err != nil {
		return nil, fmt.Errorf("netmcast: bind listener (last attempt port %d): %w: %w", 0, lastErr, err)
	}
	return l, nil
}

func bindListener(ifaces []net.Interface, port int) (*Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				//nolint:gosec // fd is always a small positive kernel descriptor
				sockErr = setReuseOpts(int(fd))
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(nil, "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, fmt.Errorf("netmcast: listen udp4 :%d: %w", port, err)
	}

	pc := ipv4.NewPacketConn(conn)
	group := &net.UDPAddr{IP: net.ParseIP(GroupAddr)}

	joined := 0
	for i := range ifaces {
		if err := pc.JoinGroup(&ifaces[i], group); err != nil {
			continue
		}
		joined++
	}
	if joined == 0 {
		conn.Close()
		return nil, fmt.Errorf("netmcast: join multicast group on any interface (port %d): %w", port, ErrNoInterfaces)
	}

	actualPort := port
	if udpAddr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		actualPort = udpAddr.Port
	}

	return &Listener{pc: pc, conn: conn, port: actualPort}, nil
}

func setReuseOpts(fd int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("set SO_REUSEADDR: %w", err)
	}
	if err := setReusePort(fd); err != nil {
		return fmt.Errorf("set SO_REUSEPORT: %w", err)
	}
	return nil
}

// Port returns the UDP port the listener is actually bound to.
func (l *Listener) Port() int {
	return l.port
}

// ReadFrom reads a single datagram into buf, returning the number of bytes
// read and the sender's address.
func (l *Listener) ReadFrom(buf []byte) (int, netip.AddrPort, error) {
	n, _, src, err := l.pc.ReadFrom(buf)
	if err != nil {
		return 0, netip.AddrPort{}, fmt.Errorf("netmcast: read: %w", err)
	}
	udpAddr, ok := src.(*net.UDPAddr)
	if !ok {
		return n, netip.AddrPort{}, fmt.Errorf("netmcast: unexpected source address type %T", src)
	}
	ap, ok := netip.AddrFromSlice(udpAddr.IP.To4())
	if !ok {
		return n, netip.AddrPort{}, fmt.Errorf("netmcast: parse source address %s", udpAddr.IP)
	}
	return n, netip.AddrPortFrom(ap, uint16(udpAddr.Port)), nil
}

// Close releases the listener socket.
func (l *Listener) Close() error {
	if err := l.conn.Close(); err != nil {
		return fmt.Errorf("netmcast: close listener: %w", err)
	}
	return nil
}
