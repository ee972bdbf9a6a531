package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"cargo-tracker/internal/domain/gps"
)

type recordingHandle struct {
	mu   sync.Mutex
	sent []interface{}
	err  error
}

func (h *recordingHandle) Send(payload interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.sent = append(h.sent, payload)
	return nil
}

func (h *recordingHandle) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent)
}

func TestConnectionManager_SendRequiresBinding(t *testing.T) {
	m := NewConnectionManager(NewRegistry())

	if err := m.Send("gps-1", "ping"); !errors.Is(err, gps.ErrNotConnected) {
		t.Fatalf("Send() error = %v, want ErrNotConnected", err)
	}

	h := &recordingHandle{}
	m.Bind("gps-1", h)

	if err := m.Send("gps-1", "ping"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if h.count() != 1 {
		t.Errorf("handle received %d payloads, want 1", h.count())
	}
}

func TestConnectionManager_SendPropagatesHandleError(t *testing.T) {
	m := NewConnectionManager(nil)
	m.Bind("gps-1", &recordingHandle{err: gps.ErrHandleUnavailable})

	if err := m.Send("gps-1", "ping"); !errors.Is(err, gps.ErrHandleUnavailable) {
		t.Fatalf("Send() error = %v, want ErrHandleUnavailable", err)
	}
}

func TestConnectionManager_RebindSupersedesOldHandle(t *testing.T) {
	registry := NewRegistry()
	registry.Register(gps.Registration{DeviceID: "gps-1"})
	m := NewConnectionManager(registry)

	oldHandle := &recordingHandle{}
	newHandle := &recordingHandle{}
	m.Bind("gps-1", oldHandle)
	m.Bind("gps-1", newHandle)

	if err := m.Send("gps-1", "cmd"); err != nil {
		t.Fatal(err)
	}
	if oldHandle.count() != 0 || newHandle.count() != 1 {
		t.Fatalf("old=%d new=%d, want old=0 new=1", oldHandle.count(), newHandle.count())
	}

	// Closing the superseded handle must not tear down the live binding.
	if _, ok := m.Unbind(oldHandle); ok {
		t.Error("Unbind() of superseded handle should report no binding")
	}
	if !m.IsConnected("gps-1") {
		t.Error("device should still be connected through the new handle")
	}
	device, _ := registry.Get("gps-1")
	if !device.IsActive {
		t.Error("device should stay active when a stale handle closes")
	}
}

func TestConnectionManager_UnbindMarksInactive(t *testing.T) {
	clock := newFakeClock()
	registry := NewRegistry(WithClock(clock.Now))
	registry.Register(gps.Registration{DeviceID: "gps-1"})
	m := NewConnectionManager(registry)

	h := &recordingHandle{}
	m.Bind("gps-1", h)

	clock.Advance(30 * time.Second)
	deviceID, ok := m.Unbind(h)
	if !ok || deviceID != "gps-1" {
		t.Fatalf("Unbind() = (%q, %v), want (gps-1, true)", deviceID, ok)
	}
	if m.IsConnected("gps-1") {
		t.Error("binding should be removed")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}

	device, _ := registry.Get("gps-1")
	if device.IsActive {
		t.Error("device should be inactive right after close")
	}
	if !device.LastSeen.Equal(clock.Now()) {
		t.Errorf("LastSeen = %v, want %v", device.LastSeen, clock.Now())
	}
}

func TestConnectionManager_HandleReregistersUnderNewID(t *testing.T) {
	registry := NewRegistry()
	registry.Register(gps.Registration{DeviceID: "gps-1"})
	registry.Register(gps.Registration{DeviceID: "gps-2"})
	m := NewConnectionManager(registry)
	h := &recordingHandle{}

	m.Bind("gps-1", h)
	m.Bind("gps-2", h)

	if m.IsConnected("gps-1") {
		t.Error("old device id should be released")
	}
	if !m.IsConnected("gps-2") {
		t.Error("new device id should be bound")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	if device, _ := registry.Get("gps-1"); device.IsActive {
		t.Error("released device should be inactive immediately")
	}
	if device, _ := registry.Get("gps-2"); !device.IsActive {
		t.Error("newly bound device should stay active")
	}
}
