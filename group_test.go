package dali

import (
	"errors"
	"testing"
)

func TestGroupUniqueID(t *testing.T) {
	s, _ := newTestSession()
	g := NewGroup(s, DiscoveredGroup{ID: 3, Channel: 1, Name: "Living room"})

	want := GroupID(3, 1, "gw-1")
	if got := g.UniqueID(); got != want {
		t.Fatalf("UniqueID() = %q, want %q", got, want)
	}
}

func TestGroupTurnOnRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	g := NewGroup(s, DiscoveredGroup{ID: 1, Channel: 1})

	err := g.TurnOn(500, 4000, 255, 0, 0, 0)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestGroupTurnOffRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	g := NewGroup(s, DiscoveredGroup{ID: 1, Channel: 1})

	if err := g.TurnOff(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
