// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origFlags = *buildFlags

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildFlags = origFlags

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsgs []string
	}{
		{
			"Missing BuildName",
			"",
			"2026-10-19",
			"abcdef123",
			"v0.3.0",
			[]string{"BuildName is required"},
		},
		{
			"Missing BuildCommit",
			"scope",
			"2026-10-19",
			"",
			"v0.3.0",
			[]string{"BuildCommit is required"},
		},
		{
			"Missing Everything",
			"",
			"",
			"",
			"",
			[]string{"BuildName", "BuildTime", "BuildCommit", "BuildVersion"},
		},
		{
			"Success Case",
			"scope",
			"2026-10-19",
			"abcdef123",
			"v0.3.0",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = defaultFlags()

			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if len(tt.wantErrMsgs) > 0 {
				if err == nil {
					t.Fatalf("Initialize() expected error, got nil")
				}
				for _, msg := range tt.wantErrMsgs {
					if !strings.Contains(err.Error(), msg) {
						t.Errorf("Initialize() error = %v, want it to mention %q", err, msg)
					}
				}
				if buildFlags.Version != "dev" {
					t.Errorf("failed Initialize() must keep defaults, got version %q", buildFlags.Version)
				}
				return
			}

			if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}
			if buildFlags.Name != tt.buildName {
				t.Errorf("buildFlags.Name = %v, want %v", buildFlags.Name, tt.buildName)
			}
			if buildFlags.Version != tt.buildVer {
				t.Errorf("buildFlags.Version = %v, want %v", buildFlags.Version, tt.buildVer)
			}
		})
	}
}

func TestBuildFlagsString(t *testing.T) {
	buildFlags = &ldFlags{
		Name:    "scope",
		Time:    "2026-10-19",
		Commit:  "abcdef123",
		Version: "v0.3.0",
	}

	got := GetBuildFlags().String()
	want := "scope v0.3.0 (commit abcdef123, built 2026-10-19)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
