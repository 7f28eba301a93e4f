package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String()
	if !strings.HasPrefix(got, "focusforge ") {
		t.Errorf("String() = %q, want focusforge prefix", got)
	}
	if !strings.Contains(got, Version) || !strings.Contains(got, GitCommit) {
		t.Errorf("String() = %q does not carry the build info", got)
	}
}
