package version

import (
	"runtime"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, v, c, d string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = v, c, d
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, "1.0.0", "abc123def456", "2026-01-01T12:00:00Z")

	info := GetInfo()

	if info.Version != "1.0.0" {
		t.Errorf("GetInfo().Version = %v, want 1.0.0", info.Version)
	}
	if info.Commit != "abc123def456" {
		t.Errorf("GetInfo().Commit = %v, want abc123def456", info.Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("GetInfo().Platform = %v", info.Platform)
	}
}

func TestInfoString(t *testing.T) {
	withBuildInfo(t, "2.1.0", "abc123def456", "2026-03-04")

	s := GetInfo().String()
	if !strings.HasPrefix(s, "producttrack 2.1.0 (abc123de)") {
		t.Errorf("String() = %q, want short commit prefix", s)
	}
}

func TestShortCommitUntouchedWhenShort(t *testing.T) {
	withBuildInfo(t, "dev", "abc", "unknown")

	if !strings.Contains(GetInfo().String(), "(abc)") {
		t.Errorf("short commit should be kept as-is: %s", GetInfo().String())
	}
}

func TestUserAgent(t *testing.T) {
	withBuildInfo(t, "0.3.0", "x", "y")

	ua := GetInfo().UserAgent()
	if !strings.HasPrefix(ua, "producttrack-cli/0.3.0 (") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
