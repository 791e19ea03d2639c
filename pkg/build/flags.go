// SPDX-License-Identifier: MIT
//
// Package build exposes the build metadata embedded at link time. The values
// are injected with -ldflags, for example:
//
//	go build -ldflags "-X scope/pkg/build.buildName=scope -X scope/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds run without them and report "dev".
package build

import (
	"errors"
	"fmt"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        "scope",
		Description: "Real-time log-frequency spectrum visualiser",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize validates and copies build information from the ldflags
// variables into the buildFlags struct. It returns an error describing every
// missing flag; callers may treat that as a development build and continue
// with the defaults.
func Initialize() error {
	var errs []error
	if buildName == "" {
		errs = append(errs, fmt.Errorf("BuildName is required"))
	}
	if buildTime == "" {
		errs = append(errs, fmt.Errorf("BuildTime is required"))
	}
	if buildCommit == "" {
		errs = append(errs, fmt.Errorf("BuildCommit is required"))
	}
	if buildVersion == "" {
		errs = append(errs, fmt.Errorf("BuildVersion is required"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the build information for version output.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
