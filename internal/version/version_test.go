package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldCommit, oldTime := Commit, BuildTime
	defer func() { Commit, BuildTime = oldCommit, oldTime }()

	Commit = "0123456789abcdef"
	BuildTime = "2026-10-01T00:00:00Z"

	got := String()
	if !strings.HasPrefix(got, "enroll dev") {
		t.Errorf("String() = %q, want enroll prefix", got)
	}
	if !strings.Contains(got, "commit: 0123456") || strings.Contains(got, "0123456789") {
		t.Errorf("String() = %q, want short commit", got)
	}
}
