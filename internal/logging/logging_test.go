package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput(&buf, "loud", "json")
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %s, want info", l.GetLevel())
	}
	if !strings.Contains(buf.String(), "Invalid LOG_LEVEL") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}

func TestNew_JSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := newWithOutput(&buf, "debug", "json")
	l.WithField("order_id", "abc").Debug("hello")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %v (%q)", err, buf.String())
	}
	if entry["order_id"] != "abc" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
