package compiler

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/jmm-lang/jmmc/internal/errors"
)

// DefaultTarget is the release used when none is configured.
const DefaultTarget = "17"

// supportedReleases bounds the releases whose class-file versions the
// emitted instruction subset is valid for.
const supportedReleases = ">= 1.6, <= 21"

// Target is a validated Java release and the class-file major version it
// implies.
type Target struct {
	Release string
	Major   int
}

func (t Target) String() string {
	return fmt.Sprintf("%s (class file %d)", t.Release, t.Major)
}

// ParseTarget validates a release string such as "1.8", "11" or "21".
// Releases written as 1.x map to major 44+x, later releases N to 44+N.
func ParseTarget(release string) (Target, error) {
	if release == "" {
		release = DefaultTarget
	}

	v, err := semver.NewVersion(release)
	if err != nil {
		return Target{}, errors.InvalidTarget(release, err.Error())
	}

	c, err := semver.NewConstraint(supportedReleases)
	if err != nil {
		return Target{}, errors.Internal("bad release constraint %q: %v", supportedReleases, err)
	}
	if !c.Check(v) {
		return Target{}, errors.InvalidTarget(release, "supported releases are "+supportedReleases)
	}

	feature := int(v.Major())
	if feature == 1 {
		feature = int(v.Minor())
	}
	major := 44 + feature
	if major < 50 {
		return Target{}, errors.InvalidTarget(release, "supported releases are "+supportedReleases)
	}

	return Target{Release: release, Major: major}, nil
}
