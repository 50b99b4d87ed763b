package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := New("debug", format)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !log.Core().Enabled(zap.DebugLevel) {
			t.Fatalf("%s: debug not enabled", format)
		}
	}

	log, err := New("WARN", "json")
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zap.InfoLevel) {
		t.Fatal("info should be filtered at warn")
	}

	if _, err := New("loud", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
