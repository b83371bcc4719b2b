// Package version provides engine and host version parsing and compatibility
// checks.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Engine is the version of the dissection engine.
const Engine = "0.1.0"

// Host API version the engine is built against. A host only loads
// dissectors whose wanted major.minor matches its own.
const (
	WantMajor = 4
	WantMinor = 4
)

// Version is a parsed "major.minor" or "major.minor.patch" version.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor" or "major.minor.patch" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	var nums [3]uint16
	names := [3]string{"major", "minor", "patch"}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return Version{}, fmt.Errorf("invalid version %q: bad %s component", s, names[i])
		}
		nums[i] = uint16(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// HostCompatible reports whether a host with the given version can load
// dissectors built by this engine. Only major and minor are compared.
func HostCompatible(host Version) bool {
	return host.Major == WantMajor && host.Minor == WantMinor
}

// Triple returns the engine version and the wanted host major and minor, in
// the form hosts expect from plugins.
func Triple() (string, int, int) {
	return Engine, WantMajor, WantMinor
}
