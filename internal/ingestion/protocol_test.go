package ingestion

import (
	"errors"
	"strings"
	"testing"

	"cargo-tracker/internal/domain/gps"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantType string
		wantID   string
		wantErr  bool
	}{
		{
			name:     "register",
			payload:  `{"type":"register","deviceId":"gps-100","imei":"356938035643809","firmwareVersion":"1.4.2"}`,
			wantType: MessageTypeRegister,
			wantID:   "gps-100",
		},
		{
			name:     "location",
			payload:  `{"type":"location","data":{"deviceId":"gps-100","latitude":10.77,"longitude":106.69,"speed":10,"timestamp":"2025-03-01T12:00:00Z","satellites":9}}`,
			wantType: MessageTypeLocation,
			wantID:   "gps-100",
		},
		{
			name:     "status",
			payload:  `{"type":"status","deviceId":"gps-100","data":{"batteryLevel":77,"signalStrength":-65}}`,
			wantType: MessageTypeStatus,
			wantID:   "gps-100",
		},
		{
			name:     "heartbeat",
			payload:  `{"type":"heartbeat","deviceId":"gps-100"}`,
			wantType: MessageTypeHeartbeat,
			wantID:   "gps-100",
		},
		{name: "malformed json", payload: `{"type":`, wantErr: true},
		{name: "unknown type", payload: `{"type":"reboot","deviceId":"gps-100"}`, wantErr: true},
		{name: "missing type", payload: `{"deviceId":"gps-100"}`, wantErr: true},
		{name: "register without id", payload: `{"type":"register"}`, wantErr: true},
		{name: "location without data", payload: `{"type":"location"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseFrame([]byte(tt.payload))
			if tt.wantErr {
				var perr *gps.ProtocolError
				if !errors.As(err, &perr) {
					t.Fatalf("ParseFrame() error = %v, want *gps.ProtocolError", err)
				}
				if perr.Reason != "Invalid message format" {
					t.Errorf("Reason = %q", perr.Reason)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame() error = %v", err)
			}
			if frame.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", frame.Type, tt.wantType)
			}
			if frame.DeviceID() != tt.wantID {
				t.Errorf("DeviceID() = %q, want %q", frame.DeviceID(), tt.wantID)
			}
		})
	}
}

func TestParseFrame_StatusFields(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"type":"status","deviceId":"gps-1","data":{"batteryLevel":42}}`))
	if err != nil {
		t.Fatal(err)
	}
	if frame.Status.Data.BatteryLevel == nil || *frame.Status.Data.BatteryLevel != 42 {
		t.Errorf("BatteryLevel = %v, want 42", frame.Status.Data.BatteryLevel)
	}
	if frame.Status.Data.SignalStrength != nil {
		t.Errorf("SignalStrength should be absent, got %v", *frame.Status.Data.SignalStrength)
	}
}

func TestEncodeFrame_Registered(t *testing.T) {
	payload, err := EncodeFrame(RegisteredMessage{
		Type:     MessageTypeRegistered,
		DeviceID: "gps-100",
		Config:   DeviceConfig{ReportingInterval: 30, HighAccuracyMode: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := `"config":{"reportingInterval":30,"highAccuracyMode":true}`
	if !strings.Contains(string(payload), want) {
		t.Errorf("payload %s does not contain %s", payload, want)
	}
}

func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name      string
		loc       *gps.Location
		wantField string
	}{
		{name: "valid", loc: &gps.Location{DeviceID: "d", Latitude: 10, Longitude: 106, Heading: 359}},
		{name: "nil", loc: nil, wantField: "data"},
		{name: "latitude", loc: &gps.Location{DeviceID: "d", Latitude: 91}, wantField: "latitude"},
		{name: "longitude", loc: &gps.Location{DeviceID: "d", Longitude: -181}, wantField: "longitude"},
		{name: "speed", loc: &gps.Location{DeviceID: "d", Speed: -1}, wantField: "speed"},
		{name: "heading", loc: &gps.Location{DeviceID: "d", Heading: 361}, wantField: "heading"},
		{name: "device id", loc: &gps.Location{}, wantField: "deviceId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocation(tt.loc)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateLocation() error = %v", err)
				}
				return
			}
			var verr *gps.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateLocation() error = %v, want *gps.ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	level := 101
	err := ValidateStatus(&gps.StatusUpdate{BatteryLevel: &level})
	var verr *gps.ValidationError
	if !errors.As(err, &verr) || verr.Field != "batteryLevel" {
		t.Fatalf("ValidateStatus() error = %v, want batteryLevel validation error", err)
	}

	if err := ValidateStatus(&gps.StatusUpdate{}); err != nil {
		t.Fatalf("empty status should be valid, got %v", err)
	}
}
