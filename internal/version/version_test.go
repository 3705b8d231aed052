package version

import (
	"runtime/debug"
	"testing"
)

func TestInfoString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "v1.2.0"}, "v1.2.0"},
		{Info{Version: "v1.2.0", Commit: "0123456789abcdef"}, "v1.2.0 (0123456789ab)"},
		{Info{Version: "devel", Commit: "abc", Modified: true}, "devel (abc-dirty)"},
	}
	for _, tc := range tests {
		if got := tc.info.String(); got != tc.want {
			t.Errorf("%+v: got %q want %q", tc.info, got, tc.want)
		}
	}
}

func TestFillFromBuildInfoKeepsLinkerValues(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "feedface"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	info := Info{Commit: "cafebabe"}
	fillFromBuildInfo(&info, bi)
	want := Info{
		Version:   "v0.3.0",
		Commit:    "cafebabe",
		BuildTime: "2026-01-02T03:04:05Z",
		Modified:  true,
		GoVersion: "go1.26.0",
	}
	if info != want {
		t.Fatalf("got %+v want %+v", info, want)
	}
}
