package dali

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// SessionState is the connection lifecycle state of a Session.
type SessionState uint32

const (
	StateIdle SessionState = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const connectTimeout = 10 * time.Second

// inboundMsg is a raw MQTT message handed from paho's callback goroutine to
// the session's run loop.
type inboundMsg struct {
	payload []byte
}

// Session owns the MQTT connection to one gateway: connect/disconnect
// lifecycle, inbound message demultiplexing, the coalescing/correlation
// Dispatcher, and the Registry that inbound status events fan out through.
type Session struct {
	gw GatewayDescriptor

	subTopic string
	pubTopic string

	client   mqtt.Client
	state    atomic.Uint32
	registry *Registry
	dispatch *Dispatcher
	metrics  MetricsReporter
	logger   *slog.Logger

	caPool *x509.CertPool

	inboundCh chan inboundMsg
	loopCtx   context.Context
	loopStop  context.CancelFunc
	loopDone  chan struct{}

	// Accumulators for the discovery-style responses that arrive as a
	// sequence of messages before completing a single waiter. Touched
	// only from runLoop.
	devicesAcc []Device
	groupsAcc  []DiscoveredGroup
	scenesAcc  []DiscoveredScene
}

// identifyWaiterKey scopes an identify-device correlation to one device so
// concurrent IdentifyDevice calls against different devices don't race.
func identifyWaiterKey(devID string) waiterKey {
	return waiterKey("identify:" + devID)
}

// SessionOption configures optional Session parameters.
type SessionOption func(*Session)

// WithMetrics installs a MetricsReporter. The default is a no-op reporter.
func WithMetrics(m MetricsReporter) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithLogger installs a *slog.Logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithCACertPool installs the certificate pool used to verify the
// gateway's TLS certificate when GatewayDescriptor.IsTLS is true. Hostname
// verification is intentionally disabled (the gateway's certificate is
// not issued for gw_ip), matching the reference client's TLS setup.
func WithCACertPool(pool *x509.CertPool) SessionOption {
	return func(s *Session) { s.caPool = pool }
}

// WithRegistry installs a pre-built Registry instead of a fresh one, so a
// host can share one Registry across sessions for multiple gateways.
func WithRegistry(r *Registry) SessionOption {
	return func(s *Session) { s.registry = r }
}

// NewSession constructs a Session for gw. The session is idle until
// Connect is called.
func NewSession(gw GatewayDescriptor, opts ...SessionOption) *Session {
	s := &Session{
		gw:        gw,
		subTopic:  fmt.Sprintf("/%s/client/reciver/", gw.GwSN),
		pubTopic:  fmt.Sprintf("/%s/server/publish/", gw.GwSN),
		registry:  NewRegistry(),
		metrics:   noopReporter{},
		logger:    slog.Default(),
		inboundCh: make(chan inboundMsg, 32),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "session"), slog.String("gw_sn", gw.GwSN))
	s.dispatch = NewDispatcher(gw.GwSN, s.publishPayload)
	return s
}

// Registry returns the session's event registry, for subscribing to
// inbound status events.
func (s *Session) Registry() *Registry {
	return s.registry
}

// State returns the current connection state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Connect opens the MQTT connection; once the broker accepts it, the
// OnConnect handler subscribes to the gateway's inbound topic (subTopic).
// It blocks until the broker acknowledges the connection, ctx is
// cancelled, or connectTimeout elapses.
func (s *Session) Connect(ctx context.Context) error {
	if !s.state.CompareAndSwap(uint32(StateIdle), uint32(StateConnecting)) {
		cur := s.State()
		if cur == StateConnected {
			return newGatewayError(s.gw.GwSN, ErrCodeNetwork, ErrAlreadyConnected)
		}
		return newGatewayError(s.gw.GwSN, ErrCodeNetwork, ErrClosed)
	}

	scheme := "tcp"
	if s.gw.IsTLS {
		scheme = "ssl"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, s.gw.GwIP, s.gw.Port)).
		SetClientID(fmt.Sprintf("ha_dali_center_%s", s.gw.GwSN)).
		SetUsername(s.gw.Username).
		SetPassword(s.gw.Passwd).
		SetProtocolVersion(4). // MQTT 3.1.1
		SetAutoReconnect(false).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	if s.gw.IsTLS {
		opts.SetTLSConfig(&tls.Config{
			RootCAs:            s.caPool,
			InsecureSkipVerify: false,
			// The gateway's certificate is not issued for its IP address;
			// only the CA chain is verified.
			//nolint:gosec // matches the reference client's check_hostname=False
			ServerName: "",
		})
	}

	s.client = mqtt.NewClient(opts)

	token := s.client.Connect()
	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		s.state.Store(uint32(StateIdle))
		return newGatewayError(s.gw.GwSN, ErrCodeNetwork, ctx.Err())
	case <-timer.C:
		s.state.Store(uint32(StateIdle))
		return newGatewayError(s.gw.GwSN, ErrCodeConnectionTimeout, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		s.state.Store(uint32(StateIdle))
		return newGatewayError(s.gw.GwSN, classifyConnectError(err), err)
	}

	s.loopCtx, s.loopStop = context.WithCancel(context.Background())
	s.loopDone = make(chan struct{})
	go s.runLoop()

	s.state.Store(uint32(StateConnected))
	s.metrics.SessionConnected(s.gw.GwSN, true)
	s.registry.Dispatch(Event{Kind: EventOnlineStatus, TargetID: s.gw.GwSN, Data: true})
	return nil
}

// classifyConnectError maps a paho connect error to our ErrorCode taxonomy
// by matching the known CONNACK rejection text the library surfaces,
// since the v3.1.1 client does not expose the raw return code to callers.
func classifyConnectError(err error) ErrorCode {
	msg := err.Error()
	switch {
	case contains(msg, "not authorized"), contains(msg, "not Authorized"):
		return ErrCodeAuthRequired
	case contains(msg, "bad user name or password"), contains(msg, "Bad Username or Password"):
		return ErrCodeAuthInvalidCreds
	case contains(msg, "identifier rejected"):
		return ErrCodeMQTTProtocol
	case contains(msg, "server Unavailable"), contains(msg, "Server Unavailable"):
		return ErrCodeMQTTBrokerUnavail
	case contains(msg, "network Error"), contains(msg, "Network Error"):
		return ErrCodeNetwork
	default:
		return ErrCodeMQTTConnRefused
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func (s *Session) onConnect(client mqtt.Client) {
	if token := client.Subscribe(s.subTopic, 0, s.onMessage); token.Wait() && token.Error() != nil {
		s.logger.Error("subscribe failed", slog.Any("error", token.Error()))
		return
	}
	s.logger.Debug("subscribed", slog.String("topic", s.subTopic))
}

func (s *Session) onConnectionLost(_ mqtt.Client, err error) {
	s.logger.Warn("unexpected MQTT disconnection", slog.Any("error", err))
}

func (s *Session) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case s.inboundCh <- inboundMsg{payload: payload}:
	case <-s.loopCtx.Done():
	}
}

// runLoop is the single goroutine that owns inbound-message demultiplexing
// for the lifetime of the connection.
func (s *Session) runLoop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.loopCtx.Done():
			return
		case msg := <-s.inboundCh:
			s.handleInbound(msg.payload)
		case cmd := <-s.dispatch.FlushNotifications():
			size, err := s.dispatch.Flush(cmd)
			if err != nil {
				s.logger.Error("flush batch failed", slog.String("cmd", cmd), slog.Any("error", err))
			} else if size > 0 {
				s.metrics.DispatcherBatchFlushed(cmd, size)
			}
		}
	}
}

// Disconnect closes the MQTT connection and stops the run loop. It is
// safe to call more than once.
func (s *Session) Disconnect() error {
	prev := SessionState(s.state.Swap(uint32(StateDisconnecting)))
	if prev == StateClosed || prev == StateIdle {
		s.state.Store(uint32(prev))
		return nil
	}

	if s.loopStop != nil {
		s.loopStop()
		<-s.loopDone
	}
	s.dispatch.Close()

	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.state.Store(uint32(StateClosed))
	s.metrics.SessionConnected(s.gw.GwSN, false)
	s.registry.Dispatch(Event{Kind: EventOnlineStatus, TargetID: s.gw.GwSN, Data: false})
	return nil
}

func (s *Session) publishPayload(payload any) error {
	if s.State() != StateConnected {
		return newGatewayError(s.gw.GwSN, ErrCodeNetwork, ErrNotConnected)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dali: marshal publish payload: %w", err)
	}
	token := s.client.Publish(s.pubTopic, 0, false, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return newGatewayError(s.gw.GwSN, ErrCodeNetwork, err)
	}
	return nil
}

func newMsgID() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}
