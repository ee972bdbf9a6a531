package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/tracking"
)

type fakeHandle struct {
	mu   sync.Mutex
	sent []interface{}
}

func (h *fakeHandle) Send(payload interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, payload)
	return nil
}

type harness struct {
	svc        *tracking.Service
	store      gps.Repository
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newTestStore(t)
	svc := tracking.NewService(time.Minute, 5*time.Minute)
	processor := newTestProcessor(svc.Registry, store, &recordingBroadcaster{})
	return &harness{
		svc:        svc,
		store:      store,
		dispatcher: NewDispatcher(svc, processor, DeviceConfig{ReportingInterval: 30, HighAccuracyMode: true}),
	}
}

func TestSession_RejectsFramesBeforeRegister(t *testing.T) {
	h := newHarness(t)
	s := NewSession(h.dispatcher, &fakeHandle{})

	reply := s.HandleFrame(context.Background(), []byte(`{"type":"heartbeat","deviceId":"gps-1"}`))
	msg, ok := reply.(ErrorMessage)
	if !ok || msg.Error != "Device not registered" {
		t.Fatalf("reply = %#v, want Device not registered error", reply)
	}
	if s.State() != StateUnregistered {
		t.Errorf("State() = %v, want unregistered", s.State())
	}
}

func TestSession_InvalidFrameKeepsSessionOpen(t *testing.T) {
	h := newHarness(t)
	s := NewSession(h.dispatcher, &fakeHandle{})
	ctx := context.Background()

	for _, payload := range []string{`not json`, `{"type":"teleport"}`} {
		reply := s.HandleFrame(ctx, []byte(payload))
		msg, ok := reply.(ErrorMessage)
		if !ok || msg.Error != "Invalid message format" {
			t.Fatalf("reply to %q = %#v", payload, reply)
		}
	}

	reply := s.HandleFrame(ctx, []byte(`{"type":"register","deviceId":"gps-1"}`))
	if _, ok := reply.(*RegisteredMessage); !ok {
		t.Fatalf("register after bad frames should succeed, got %#v", reply)
	}
}

func TestSession_Lifecycle(t *testing.T) {
	h := newHarness(t)
	handle := &fakeHandle{}
	s := NewSession(h.dispatcher, handle)
	ctx := context.Background()

	reply := s.HandleFrame(ctx, []byte(`{"type":"register","deviceId":"gps-100","imei":"356938035643809","firmwareVersion":"1.0"}`))
	registered, ok := reply.(*RegisteredMessage)
	if !ok {
		t.Fatalf("reply = %#v, want *RegisteredMessage", reply)
	}
	if registered.Type != "registered" || registered.DeviceID != "gps-100" {
		t.Errorf("registered = %+v", registered)
	}
	if registered.Config.ReportingInterval != 30 || !registered.Config.HighAccuracyMode {
		t.Errorf("config = %+v", registered.Config)
	}
	if s.State() != StateRegistered {
		t.Errorf("State() = %v, want registered", s.State())
	}
	if !h.svc.Connections.IsConnected("gps-100") {
		t.Fatal("register should bind the connection")
	}

	if reply := s.HandleFrame(ctx, []byte(`{"type":"status","deviceId":"gps-100","data":{"batteryLevel":64,"signalStrength":-70}}`)); reply != nil {
		t.Fatalf("status reply = %#v, want none", reply)
	}
	if s.State() != StateActive {
		t.Errorf("State() = %v, want active", s.State())
	}
	device, _ := h.svc.Registry.Get("gps-100")
	if device.BatteryLevel == nil || *device.BatteryLevel != 64 {
		t.Errorf("BatteryLevel = %v, want 64", device.BatteryLevel)
	}

	if reply := s.HandleFrame(ctx, []byte(`{"type":"heartbeat","deviceId":"gps-100"}`)); reply != nil {
		t.Fatalf("heartbeat reply = %#v, want none", reply)
	}
	if reply := s.HandleFrame(ctx, []byte(`{"type":"location","data":{"deviceId":"gps-100","latitude":10,"longitude":106,"speed":3}}`)); reply != nil {
		t.Fatalf("location reply = %#v, want none", reply)
	}

	// Unknown devices are dropped without a reply.
	if reply := s.HandleFrame(ctx, []byte(`{"type":"heartbeat","deviceId":"nobody"}`)); reply != nil {
		t.Fatalf("unknown device reply = %#v, want none", reply)
	}

	// Out-of-range samples are answered with an error frame.
	reply = s.HandleFrame(ctx, []byte(`{"type":"location","data":{"deviceId":"gps-100","latitude":123,"longitude":106}}`))
	if msg, ok := reply.(ErrorMessage); !ok || msg.Error == "" {
		t.Fatalf("invalid location reply = %#v, want error frame", reply)
	}

	s.Close()
	s.Close()

	if s.State() != StateClosed {
		t.Errorf("State() = %v, want closed", s.State())
	}
	if h.svc.Connections.IsConnected("gps-100") {
		t.Error("close should unbind the connection")
	}
	device, _ = h.svc.Registry.Get("gps-100")
	if device.IsActive {
		t.Error("close should mark the device inactive")
	}
	if reply := s.HandleFrame(ctx, []byte(`{"type":"heartbeat","deviceId":"gps-100"}`)); reply != nil {
		t.Errorf("closed session replied %#v", reply)
	}
}

func TestSession_CloseWithoutRegisterLeavesOthersAlone(t *testing.T) {
	h := newHarness(t)
	other := &fakeHandle{}
	if _, _, err := h.dispatcher.Register(&RegisterMessage{DeviceID: "gps-1"}, TransportWebSocket, other); err != nil {
		t.Fatal(err)
	}

	s := NewSession(h.dispatcher, &fakeHandle{})
	s.Close()

	if !h.svc.Connections.IsConnected("gps-1") {
		t.Error("closing an unregistered session must not touch other bindings")
	}
}

func TestSession_ReconnectSupersedesOldHandle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := NewSession(h.dispatcher, &fakeHandle{})
	first.HandleFrame(ctx, []byte(`{"type":"register","deviceId":"gps-1"}`))

	secondHandle := &fakeHandle{}
	second := NewSession(h.dispatcher, secondHandle)
	second.HandleFrame(ctx, []byte(`{"type":"register","deviceId":"gps-1"}`))

	// The old connection going away late must not drop the new binding.
	first.Close()

	if !h.svc.Connections.IsConnected("gps-1") {
		t.Fatal("device should remain bound to the new connection")
	}
	if err := h.svc.Connections.Send("gps-1", "ping"); err != nil {
		t.Fatal(err)
	}
	if len(secondHandle.sent) != 1 {
		t.Errorf("new handle received %d payloads, want 1", len(secondHandle.sent))
	}
}

func TestSession_ReregisterUnderNewIDReleasesPrevious(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := NewSession(h.dispatcher, &fakeHandle{})

	s.HandleFrame(ctx, []byte(`{"type":"register","deviceId":"gps-a"}`))
	s.HandleFrame(ctx, []byte(`{"type":"register","deviceId":"gps-b"}`))

	if s.DeviceID() != "gps-b" {
		t.Fatalf("DeviceID() = %q, want gps-b", s.DeviceID())
	}
	if a, _ := h.svc.Registry.Get("gps-a"); a.IsActive || h.svc.Connections.IsConnected("gps-a") {
		t.Errorf("gps-a active=%v connected=%v after re-register, want both false",
			a.IsActive, h.svc.Connections.IsConnected("gps-a"))
	}

	s.Close()

	for _, id := range []string{"gps-a", "gps-b"} {
		device, _ := h.svc.Registry.Get(id)
		if device.IsActive {
			t.Errorf("%s still active after close", id)
		}
		if h.svc.Connections.IsConnected(id) {
			t.Errorf("%s still connected after close", id)
		}
	}
}
