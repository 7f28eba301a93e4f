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
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("title is empty").Build(), expected: 2},
		{name: "not found", err: NotFoundError("unknown key").Build(), expected: 3},
		{name: "config", err: ConfigError("bad backend").Build(), expected: 7},
		{name: "network", err: NetworkError("nats down").Build(), expected: 8},
		{name: "storage", err: StorageError("disk full").Build(), expected: 9},
		{name: "session", err: SessionError("not running").Build(), expected: 12},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: errors.New("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	internal := InternalError("unexpected state").Build()
	if got := quiet.FormatError(internal); !strings.Contains(got, "use -v") {
		t.Errorf("expected internal error to be hidden in quiet mode, got %q", got)
	}
	if got := verbose.FormatError(internal); !strings.Contains(got, "unexpected state") {
		t.Errorf("expected verbose output to include message, got %q", got)
	}

	storage := StorageError("disk full").Build()
	if got := quiet.FormatError(storage); !strings.Contains(got, "disk full") {
		t.Errorf("expected user-facing categories to show message, got %q", got)
	}

	if got := quiet.FormatError(errors.New("plain")); got != "Error: plain" {
		t.Errorf("unexpected format for plain error: %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.DiscardHandler)).WithOutput(&out)

	if code := adapter.Report(nil); code != 0 {
		t.Fatalf("Report(nil) = %d, want 0", code)
	}
	if out.Len() != 0 {
		t.Fatalf("Report(nil) wrote %q", out.String())
	}

	code := adapter.Report(ValidationError("task title is empty").Build())
	if code != 2 {
		t.Errorf("Report() = %d, want 2", code)
	}
	if !strings.Contains(out.String(), "task title is empty") {
		t.Errorf("output %q does not mention the error", out.String())
	}
}
