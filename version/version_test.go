package version

import (
	"runtime/debug"
	"testing"
)

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.24.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := Info{Version: "1.0.0"}
	fillFromBuildInfo(&info, bi)

	if info.GitCommit != "0123456" {
		t.Errorf("expected short commit, got %q", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected build time %q", info.BuildTime)
	}
	if !info.Dirty {
		t.Error("expected dirty build")
	}
	if got := info.Short(); got != "1.0.0-0123456-dirty" {
		t.Errorf("unexpected short version %q", got)
	}
}

func TestLdflagsWin(t *testing.T) {
	bi := &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}}}
	info := Info{Version: "2.0.0", GitCommit: "abc1234", BuildTime: "yesterday"}
	fillFromBuildInfo(&info, bi)
	if info.GitCommit != "abc1234" || info.BuildTime != "yesterday" {
		t.Fatalf("ldflags values overwritten: %+v", info)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"dev", Info{Version: "dev"}, "dev"},
		{"commit", Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{"full", Info{Version: "1.0.0", BuildTime: "2026-01-02", GoVersion: "go1.24.0"}, "1.0.0 (built 2026-01-02) go1.24.0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.String(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGetDefaults(t *testing.T) {
	if got := Get(); got.Version != Version {
		t.Fatalf("expected %q, got %q", Version, got.Version)
	}
}
