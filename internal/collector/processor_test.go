package collector

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/saaga0h/atdesk-features/internal/sensor"
)

func TestParseMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	processor := NewProcessor(nil, logger)

	tests := []struct {
		name        string
		topic       string
		payload     string
		wantType    sensor.Type
		wantUser    string
		wantCount   int
		wantErr     bool
		description string
	}{
		{
			name:        "single accelerometer datapoint",
			topic:       "atdesk/raw/u1/ACCELEROMETER--org.md2k.phonesensor--PHONE",
			payload:     `{"data":{"start_time":1508835600.0,"offset":-18000,"sample":[0.1,0.2,9.8]}}`,
			wantType:    sensor.Accelerometer,
			wantUser:    "u1",
			wantCount:   1,
			description: "Should parse a wrapped single datapoint",
		},
		{
			name:        "step count batch",
			topic:       "atdesk/raw/u2/STEP_COUNT--org.md2k.phonesensor--PHONE",
			payload:     `{"data":[{"start_time":1,"offset":0,"sample":[3]},{"start_time":2,"offset":0,"sample":[4]}]}`,
			wantType:    sensor.StepCount,
			wantUser:    "u2",
			wantCount:   2,
			description: "Should parse a wrapped datapoint list",
		},
		{
			name:        "bare list",
			topic:       "atdesk/raw/u1/GYROSCOPE--org.md2k.phonesensor--PHONE",
			payload:     `[{"start_time":1,"offset":0,"sample":[0,0,0]}]`,
			wantType:    sensor.Gyroscope,
			wantUser:    "u1",
			wantCount:   1,
			description: "Should parse a payload without the data envelope",
		},
		{
			name:        "invalid topic format",
			topic:       "atdesk/raw/u1",
			payload:     `{"data":{}}`,
			wantErr:     true,
			description: "Should fail on invalid topic format",
		},
		{
			name:        "unknown stream",
			topic:       "atdesk/raw/u1/BAROMETER--PHONE",
			payload:     `{"data":{"start_time":1,"sample":[1000]}}`,
			wantErr:     true,
			description: "Should fail when no sensor type matches the stream label",
		},
		{
			name:        "invalid JSON payload",
			topic:       "atdesk/raw/u1/STEP_COUNT--PHONE",
			payload:     `{invalid json}`,
			wantErr:     true,
			description: "Should fail on invalid JSON",
		},
		{
			name:        "empty list",
			topic:       "atdesk/raw/u1/STEP_COUNT--PHONE",
			payload:     `{"data":[]}`,
			wantErr:     true,
			description: "Should fail when there are no datapoints",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := processor.ParseMessage(tt.topic, []byte(tt.payload))

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMessage() expected error but got none: %s", tt.description)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseMessage() unexpected error: %v (%s)", err, tt.description)
				return
			}

			if msg.SensorType != tt.wantType {
				t.Errorf("ParseMessage() sensorType = %v, want %v", msg.SensorType, tt.wantType)
			}

			if msg.UserID != tt.wantUser {
				t.Errorf("ParseMessage() userID = %v, want %v", msg.UserID, tt.wantUser)
			}

			if len(msg.Datapoints) != tt.wantCount {
				t.Errorf("ParseMessage() datapoints = %d, want %d", len(msg.Datapoints), tt.wantCount)
			}
		})
	}
}

func TestResolveType(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	processor := NewProcessor(map[sensor.Type][]string{
		sensor.Accelerometer: {"ACCEL"},
		sensor.Beacon:        {"BLE"},
	}, logger)

	if got, ok := processor.ResolveType("wrist-ACCEL-v2"); !ok || got != sensor.Accelerometer {
		t.Errorf("ResolveType() = %v, %v, want accelerometer", got, ok)
	}
	if _, ok := processor.ResolveType("GYROSCOPE--PHONE"); ok {
		t.Error("ResolveType() matched a type without configured keywords")
	}
}

func TestBuildStoredPayload(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	processor := NewProcessor(nil, logger)

	msg, err := processor.ParseMessage("atdesk/raw/u1/STEP_COUNT--PHONE", []byte(`{"data":{"start_time":1,"sample":[3]}}`))
	if err != nil {
		t.Fatalf("ParseMessage() failed: %v", err)
	}

	payload, err := processor.BuildStoredPayload(msg, 1, 2)
	if err != nil {
		t.Fatalf("BuildStoredPayload() failed: %v", err)
	}

	var result StoredPayload
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("BuildStoredPayload() produced invalid JSON: %v", err)
	}

	if result.Sensor != "step_count" || result.Stored != 1 || result.Rejected != 2 {
		t.Errorf("BuildStoredPayload() = %+v", result)
	}
	if result.StoredAt == "" {
		t.Error("BuildStoredPayload() missing stored_at")
	}
}
