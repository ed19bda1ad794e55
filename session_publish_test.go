package dali

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWriteDeviceEnqueuesCoalescedBatch(t *testing.T) {
	s, _ := newTestSession()

	s.WriteDevice("0101", 1, 1, []Property{{DPID: DPIDPower, Value: true}})

	select {
	case cmd := <-s.dispatch.FlushNotifications():
		if cmd != cmdWriteDev {
			t.Fatalf("got flush notification for %q, want %q", cmd, cmdWriteDev)
		}
		size, err := s.dispatch.Flush(cmd)
		if err != nil && !errors.Is(err, ErrNotConnected) {
			t.Fatalf("unexpected flush error: %v", err)
		}
		if size != 1 {
			t.Fatalf("expected batch size 1, got %d", size)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for WriteDevice to coalesce")
	}
}

func TestReadDeviceEnqueuesCoalescedBatch(t *testing.T) {
	s, _ := newTestSession()

	s.ReadDevice("0101", 1, 1)

	select {
	case cmd := <-s.dispatch.FlushNotifications():
		if cmd != cmdReadDev {
			t.Fatalf("got flush notification for %q, want %q", cmd, cmdReadDev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ReadDevice to coalesce")
	}
}

func TestWriteGroupRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	err := s.WriteGroup(1, 1, []Property{{DPID: DPIDPower, Value: true}})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestWriteSceneRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	if err := s.WriteScene(1, 1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSetSensorOnOffRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	if err := s.SetSensorOnOff("0201", 1, 1, true); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestGetSensorOnOffRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	if err := s.GetSensorOnOff("0201", 1, 1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestRequestFailsWithoutConnection(t *testing.T) {
	s, _ := newTestSession()
	_, err := s.GetVersion(context.Background())
	if err == nil {
		t.Fatal("expected GetVersion to fail when publish fails immediately")
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestIdentifyDeviceRequiresConnection(t *testing.T) {
	s, _ := newTestSession()
	ok, err := s.IdentifyDevice(context.Background(), "0101", 1, 1)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if ok {
		t.Fatal("expected a false ack alongside the error")
	}
}

