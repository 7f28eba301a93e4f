package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Key", KeyKey, "suite.tasks", Key("suite.tasks")},
		{"Origin", KeyOrigin, "ctx-1", Origin("ctx-1")},
		{"Backend", KeyBackend, "sqlite", Backend("sqlite")},
		{"Transport", KeyTransport, "nats", Transport("nats")},
		{"EntryID", KeyEntryID, "abc", EntryID("abc")},
		{"Source", KeySource, "focus", Source("focus")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Bucket", KeyBucket, "focusforge", Bucket("focusforge")},
		{"Subject", KeySubject, "suite.changes.x", Subject("suite.changes.x")},
		{"State", KeyState, "running", State("running")},
		{"Mode", KeyMode, "work", Mode("work")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Remaining(90); v.Key != KeyRemaining || v.Value.Int64() != 90 {
		t.Fatalf("Remaining mismatch: %v", v)
	}
	if v := Attempt(2); v.Key != KeyAttempt {
		t.Fatalf("Attempt key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	if v := Size(42); v.Key != KeySize {
		t.Fatalf("Size key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errors.New("err-test"))
	if attr.Value.String() != "err-test" {
		t.Fatalf("expected 'err-test', got %s", attr.Value.String())
	}
}
