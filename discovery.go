package dali

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maginawin/go-dali-gateway/internal/netmcast"
	"github.com/maginawin/go-dali-gateway/internal/xcrypt"
)

// DiscoverySendInterval is how often the discovery message is re-sent on
// every usable interface while discovery is running.
const DiscoverySendInterval = 2 * time.Second

// DiscoveryTimeout bounds how long Discover runs before returning whatever
// gateways it has collected.
const DiscoveryTimeout = 180 * time.Second

const discoveryMessageType = "HA"

type discoveryMessage struct {
	Cmd  string `json:"cmd"`
	Type string `json:"type"`
}

type discoveryReply struct {
	Data *discoveryReplyData `json:"data"`
}

type discoveryReplyData struct {
	GwSN         string `json:"gwSn"`
	GwIP         string `json:"gwIp"`
	Port         int    `json:"port"`
	IsMqttTLS    bool   `json:"isMqttTls"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Passwd       string `json:"passwd"`
	ChannelTotal []any  `json:"channelTotal"`
}

// Discoverer runs the discovery handshake described by §4.3: it sends an
// encrypted "discover" probe to the multicast group on every usable
// interface every DiscoverySendInterval, decrypts and accumulates replies
// by serial number, and returns everything it has collected once
// DiscoveryTimeout elapses or ctx is cancelled.
type Discoverer struct {
	cryptor *xcrypt.Cryptor
	logger  *slog.Logger
	metrics MetricsReporter
}

// DiscovererOption configures optional Discoverer parameters.
type DiscovererOption func(*Discoverer)

// WithDiscoveryMetrics installs a MetricsReporter. The default is a no-op
// reporter.
func WithDiscoveryMetrics(m MetricsReporter) DiscovererOption {
	return func(d *Discoverer) { d.metrics = m }
}

// NewDiscoverer constructs a Discoverer.
func NewDiscoverer(logger *slog.Logger, opts ...DiscovererOption) (*Discoverer, error) {
	cryptor, err := xcrypt.New()
	if err != nil {
		return nil, fmt.Errorf("dali: new discoverer: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Discoverer{
		cryptor: cryptor,
		logger:  logger.With(slog.String("component", "discovery")),
		metrics: noopReporter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Discover runs one discovery pass and returns every distinct gateway seen
// before ctx is cancelled or DiscoveryTimeout elapses, whichever comes
// first. Gateways are deduplicated by serial number; only the first reply
// from a given serial is kept.
//
// This accumulates across the whole window rather than returning as soon
// as one gateway answers: the reference client's own dedup-by-serial
// bookkeeping only ever has one entry to dedup against, because it stops
// at the first reply. A network with more than one gateway on it never
// gets to show the rest.
func (d *Discoverer) Discover(ctx context.Context) ([]GatewayDescriptor, error) {
	ifaces, err := netmcast.UsableInterfaces()
	if err != nil {
		return nil, newGatewayError("", ErrCodeDiscoveryNoIfaces, err)
	}

	listener, err := netmcast.NewListener(ifaces)
	if err != nil {
		return nil, newGatewayError("", ErrCodeDiscoveryFailed, err)
	}
	defer listener.Close()

	payload, err := d.buildMessage()
	if err != nil {
		return nil, newGatewayError("", ErrCodeDiscoveryFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, DiscoveryTimeout)
	defer cancel()

	results := make(chan GatewayDescriptor)
	errs := make(chan error, 1)

	start := time.Now()
	go d.sendLoop(ctx, ifaces, payload)
	go d.receiveLoop(ctx, listener, results, errs)

	seen := make(map[string]bool)
	var found []GatewayDescriptor

	for {
		select {
		case gw := <-results:
			if seen[gw.GwSN] {
				continue
			}
			seen[gw.GwSN] = true
			found = append(found, gw)
		case err := <-errs:
			if err != nil {
				d.logger.Warn("discovery receive loop ended early", slog.Any("error", err))
			}
			d.metrics.DiscoveryCompleted(len(found), time.Since(start))
			return found, nil
		case <-ctx.Done():
			d.metrics.DiscoveryCompleted(len(found), time.Since(start))
			return found, nil
		}
	}
}

func (d *Discoverer) buildMessage() ([]byte, error) {
	key := xcrypt.RandomKey()
	inner := d.cryptor.Encrypt([]byte("discover"))
	combined := key + hex.EncodeToString(inner)
	cmd := d.cryptor.Encrypt([]byte(combined))

	msg := discoveryMessage{Cmd: hex.EncodeToString(cmd), Type: discoveryMessageType}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("dali: marshal discovery message: %w", err)
	}
	return b, nil
}

func (d *Discoverer) sendLoop(ctx context.Context, ifaces []net.Interface, payload []byte) {
	ticker := time.NewTicker(DiscoverySendInterval)
	defer ticker.Stop()

	d.sendOnce(ctx, ifaces, payload)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sendOnce(ctx, ifaces, payload)
		}
	}
}

func (d *Discoverer) sendOnce(ctx context.Context, ifaces []net.Interface, payload []byte) {
	sender, err := netmcast.NewSender()
	if err != nil {
		d.logger.Warn("create discovery sender", slog.Any("error", err))
		return
	}

	g, _ := errgroup.WithContext(ctx)
	for _, iface := range ifaces {
		iface := iface
		g.Go(func() error {
			return sender.SendOn(iface, payload)
		})
	}
	if err := g.Wait(); err != nil {
		d.logger.Debug("discovery send had per-interface failures", slog.Any("error", err))
	}
}

func (d *Discoverer) receiveLoop(ctx context.Context, listener *netmcast.Listener, results chan<- GatewayDescriptor, errs chan<- error) {
	buf := make([]byte, 2048)
	for {
		if ctx.Err() != nil {
			errs <- nil
			return
		}

		n, _, err := listener.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				errs <- nil
				return
			}
			continue
		}

		gw, err := d.decodeReply(buf[:n])
		if err != nil {
			d.logger.Debug("discovery message decode failed", slog.Any("error", err))
			continue
		}
		if gw == nil {
			continue
		}

		select {
		case results <- *gw:
		case <-ctx.Done():
			errs <- nil
			return
		}
	}
}

func (d *Discoverer) decodeReply(raw []byte) (*GatewayDescriptor, error) {
	var reply discoveryReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("dali: decode discovery reply: %w", err)
	}
	if reply.Data == nil || reply.Data.GwSN == "" {
		return nil, nil
	}

	data := reply.Data
	username, err := d.decryptField(data.Username)
	if err != nil {
		return nil, err
	}
	passwd, err := d.decryptField(data.Passwd)
	if err != nil {
		return nil, err
	}

	name := data.Name
	if name == "" {
		name = fmt.Sprintf("Dali Gateway %s", data.GwSN)
	}

	return &GatewayDescriptor{
		GwSN:         data.GwSN,
		GwIP:         data.GwIP,
		Port:         data.Port,
		Name:         name,
		Username:     username,
		Passwd:       passwd,
		ChannelTotal: coerceChannelTotal(data.ChannelTotal),
		IsTLS:        data.IsMqttTLS,
	}, nil
}

func (d *Discoverer) decryptField(hexValue string) (string, error) {
	if hexValue == "" {
		return "", nil
	}
	raw, err := hex.DecodeString(hexValue)
	if err != nil {
		return "", fmt.Errorf("dali: decode encrypted field: %w", err)
	}
	return string(d.cryptor.Decrypt(raw)), nil
}

func coerceChannelTotal(raw []any) []int {
	var out []int
	for _, v := range raw {
		switch t := v.(type) {
		case float64:
			out = append(out, int(t))
		case string:
			if n, err := strconv.Atoi(t); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}
