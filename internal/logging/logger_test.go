package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, "info", "json")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.WithField("bucket", "b_4_4_g_2_L_2_F_0").Info("bucket filled")
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["bucket"] != "b_4_4_g_2_L_2_F_0" {
		t.Errorf("expected bucket field, got %v", rec["bucket"])
	}
	if rec["msg"] != "bucket filled" {
		t.Errorf("expected msg 'bucket filled', got %v", rec["msg"])
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(&buf, "debug", "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
}

func TestNewLogger_BadInput(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("dropped")
}
