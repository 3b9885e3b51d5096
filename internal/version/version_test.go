package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	s := String()
	if !strings.HasPrefix(s, "livecast 1.2.3 (") {
		t.Errorf("Unexpected version string %q", s)
	}
	if Get().Platform == "" || Get().GoVersion == "" {
		t.Error("Expected runtime fields to be set")
	}
}
