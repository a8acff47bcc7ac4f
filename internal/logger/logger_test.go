package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestPrettyFormatterSortsFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	log.SetFormatter(&PrettyFormatter{DisableColors: true})

	log.WithFields(logrus.Fields{"peer": "alice", "addr": "10.0.0.2"}).Info("Peer online")

	line := buf.String()
	if !strings.Contains(line, "INFO  Peer online addr=10.0.0.2 peer=alice") {
		t.Errorf("unexpected line: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("expected trailing newline")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}
