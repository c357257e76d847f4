package version

import (
	_ "embed" // for go:embed
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// VERSION is the release of the dcaf binaries
//
//go:embed VERSION
var VERSION string

// Release is a parsed VERSION of the form major.minor.fix[-prN]
type Release struct {
	Major, Minor, Fix int
	// Pre is the pre-release number, zero for a final release
	Pre int
}

// Current is the parsed VERSION
var Current Release

func init() {
	VERSION = strings.TrimSpace(VERSION)
	Current, _ = Parse(VERSION)
}

// Parse parses a version string
func Parse(s string) (r Release, err error) {
	core, pre, hasPre := strings.Cut(strings.TrimPrefix(s, "v"), "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return r, errors.Errorf("version %q: expected major.minor.fix", s)
	}
	nums := []*int{&r.Major, &r.Minor, &r.Fix}
	for i, p := range parts {
		if *nums[i], err = strconv.Atoi(p); err != nil {
			return Release{}, errors.Wrapf(err, "version %q", s)
		}
	}
	if hasPre {
		if r.Pre, err = strconv.Atoi(strings.TrimPrefix(pre, "pr")); err != nil {
			return Release{}, errors.Wrapf(err, "version %q: bad pre-release", s)
		}
	}
	return r, nil
}

func (r Release) String() string {
	s := fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Fix)
	if r.Pre > 0 {
		s += fmt.Sprintf("-pr%d", r.Pre)
	}
	return s
}

// UserAgent returns the user agent the passed component uses for outgoing
// requests
func UserAgent(component string) string {
	return "dcaf-" + component + "/" + VERSION
}
