package app

import (
	"errors"
	"testing"
	"time"

	"pkm/internal/testutil"
)

func TestNewOperation(t *testing.T) {
	clock := testutil.FixedClock()
	op := NewOperation("Serve", clock)

	if op.ID != "20240115T103000Z" {
		t.Errorf("ID = %q, want 20240115T103000Z", op.ID)
	}
	if op.Name != "Serve" {
		t.Errorf("Name = %q, want Serve", op.Name)
	}
	if op.Status != "running" {
		t.Errorf("Status = %q, want running", op.Status)
	}
}

func TestOperation_Finish(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantLevel  string
	}{
		{name: "success", wantStatus: "success", wantLevel: "info"},
		{name: "error", err: errors.New("vault unreachable"), wantStatus: "error", wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.FixedClock()
			logger := testutil.NewRecordingLogger()
			op := NewOperation("Backup", clock)
			clock.Advance(1500 * time.Millisecond)

			op.Finish(logger, clock, tt.err)
			op.Finish(logger, clock, nil)

			if op.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", op.Status, tt.wantStatus)
			}
			entries := logger.Entries("")
			if len(entries) != 1 {
				t.Fatalf("logged %d entries, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("level = %q, want %q", entries[0].Level, tt.wantLevel)
			}
			if got := entries[0].Fields["duration"]; got != "1.5s" {
				t.Errorf("duration = %v, want 1.5s", got)
			}
		})
	}
}
