package dali

import (
	"errors"
	"testing"
)

func TestClassifyConnectError(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorCode
	}{
		{"not authorized", ErrCodeAuthRequired},
		{"bad user name or password", ErrCodeAuthInvalidCreds},
		{"identifier rejected", ErrCodeMQTTProtocol},
		{"server Unavailable", ErrCodeMQTTBrokerUnavail},
		{"network Error", ErrCodeNetwork},
		{"connection refused", ErrCodeMQTTConnRefused},
	}
	for _, c := range cases {
		if got := classifyConnectError(errors.New(c.msg)); got != c.want {
			t.Errorf("classifyConnectError(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

func TestPublishPayloadWhenNotConnected(t *testing.T) {
	s := NewSession(GatewayDescriptor{GwSN: "gw-1"})
	err := s.publishPayload(batchCommand{Cmd: cmdWriteDev})
	if err == nil {
		t.Fatal("expected an error when publishing while not connected")
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestSessionStateString(t *testing.T) {
	cases := []struct {
		state SessionState
		want  string
	}{
		{StateIdle, "idle"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateDisconnecting, "disconnecting"},
		{StateClosed, "closed"},
		{SessionState(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.state.String(); got != c.want {
			t.Errorf("SessionState(%d).String() = %q, want %q", c.state, got, c.want)
		}
	}
}

func TestNewSessionDefaultState(t *testing.T) {
	s := NewSession(GatewayDescriptor{GwSN: "gw-1"})
	if s.State() != StateIdle {
		t.Fatalf("expected a freshly constructed session to be idle, got %v", s.State())
	}
}

func TestDisconnectBeforeConnectIsNoop(t *testing.T) {
	s := NewSession(GatewayDescriptor{GwSN: "gw-1"})
	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect on an idle session should be a no-op, got %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected state to remain idle, got %v", s.State())
	}
}

func TestDisconnectPublishesGatewayOfflineEvent(t *testing.T) {
	s, m := newTestSession()

	var got Event
	var calls int
	s.registry.Subscribe(EventOnlineStatus, s.gw.GwSN, func(ev Event) {
		got = ev
		calls++
	})

	// Simulate an already-connected session without a real MQTT client, so
	// Disconnect takes its normal (non-no-op) path.
	s.state.Store(uint32(StateConnected))

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected exactly 1 gateway online-status event, got %d", calls)
	}
	if got.TargetID != s.gw.GwSN {
		t.Fatalf("got TargetID %q, want gateway serial %q", got.TargetID, s.gw.GwSN)
	}
	if got.Data.(bool) != false {
		t.Fatalf("expected Data=false for a disconnect, got %v", got.Data)
	}
	if len(m.dispatched) != 0 {
		t.Fatalf("the gateway connectivity event is not counted by EventDispatched, got %v", m.dispatched)
	}
}

func TestDisconnectNoopPathSkipsOfflineEvent(t *testing.T) {
	s, _ := newTestSession()

	var calls int
	s.registry.Subscribe(EventOnlineStatus, s.gw.GwSN, func(ev Event) { calls++ })

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if calls != 0 {
		t.Fatalf("an idle session's no-op Disconnect should not publish an offline event, got %d calls", calls)
	}
}
