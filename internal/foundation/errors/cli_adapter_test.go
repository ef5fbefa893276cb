package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad args").Build(), 2},
		{"title", TitleError("bad title").Build(), 2},
		{"not found", NotFoundError("missing").Build(), 4},
		{"config", ConfigError("bad config").Build(), 7},
		{"storage", StorageError("db down").Build(), 9},
		{"unclassified", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	userErr := TitleError("title contains illegal characters").Build()
	if got := quiet.FormatError(userErr); got != "Error: title contains illegal characters" {
		t.Errorf("unexpected user-facing message %q", got)
	}

	internal := StorageError("insert failed").WithCause(errors.New("locked")).Build()
	if got := quiet.FormatError(internal); !strings.Contains(got, "use -v") {
		t.Errorf("expected hint for hidden details, got %q", got)
	}
	if got := verbose.FormatError(internal); !strings.Contains(got, "locked") {
		t.Errorf("expected verbose output to include the cause, got %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&out, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing version").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if !strings.Contains(out.String(), "missing version") {
		t.Errorf("expected message in output, got %q", out.String())
	}
}
