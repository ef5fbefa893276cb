package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	if Current() == "" {
		t.Error("Current should not be empty")
	}

	old := Version
	Version = "v9.9.9"
	t.Cleanup(func() { Version = old })
	if got := Current(); got != "v9.9.9" {
		t.Errorf("Current() = %q, want ldflags value", got)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "autopage ") {
		t.Errorf("String() = %q, want autopage prefix", s)
	}
	if !strings.Contains(s, GitCommit) {
		t.Errorf("String() = %q, want commit %q", s, GitCommit)
	}
}
