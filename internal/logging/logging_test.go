package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"info", log.InfoLevel, false},
		{"", log.InfoLevel, false},
		{"WARN", log.WarnLevel, false},
		{"warning", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"verbose", log.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitRejectsInvalidLevel(t *testing.T) {
	if err := Init("nope"); err == nil {
		t.Error("expected error for invalid level")
	}
	if err := Init("debug"); err != nil {
		t.Errorf("expected debug to be accepted, got %v", err)
	}
}

func TestGetReturnsLogger(t *testing.T) {
	if Get("tracker") == nil {
		t.Error("expected a logger")
	}
}
