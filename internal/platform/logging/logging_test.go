package logging_test

import (
	"testing"

	"connviewer/internal/platform/logging"
)

func TestNewParsesLevel(t *testing.T) {
	t.Parallel()
	logger, err := logging.New("WARN", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at warn level")
	}
	if _, err := logging.New("chatty", "json"); err == nil {
		t.Fatalf("unknown level should fail")
	}
	if logging.OrNop(nil) == nil {
		t.Fatalf("OrNop should never return nil")
	}
}
