package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	s := Get().String()
	if !strings.HasPrefix(s, "scalerwatch 1.2.3 (") {
		t.Errorf("Unexpected banner %q", s)
	}
}

func TestCommitFallback(t *testing.T) {
	withRevision := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		}}, true
	}
	missing := func() (*debug.BuildInfo, bool) { return nil, false }

	tests := []struct {
		name     string
		injected string
		read     func() (*debug.BuildInfo, bool)
		want     string
	}{
		{"injected wins", "deadbeef", withRevision, "deadbeef"},
		{"vcs revision", "unknown", withRevision, "0123456789ab"},
		{"no build info", "unknown", missing, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commit(tt.injected, tt.read); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
