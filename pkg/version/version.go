// Package version provides the semantic-version triple used to order and
// render release versions throughout patchgo.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a semantic version triple (major.minor.patch). It is totally
// ordered and renders as "x.y.z".
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Zero is the lowest possible Version, used as the latest version of an
// empty release registry.
var Zero = Version{}

// New constructs a Version from its three components.
func New(major, minor, patch uint64) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse parses a "major.minor.patch" string into a Version.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version: invalid format %q, expected major.minor.patch", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("version: invalid major component in %q: %w", s, err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("version: invalid minor component in %q: %w", s, err)
	}
	patch, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("version: invalid patch component in %q: %w", s, err)
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// String renders the version as "major.minor.patch".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler so Version drops directly
// into JSON and YAML struct fields.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than
// other, comparing major, then minor, then patch.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpUint64(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpUint64(v.Minor, other.Minor)
	default:
		return cmpUint64(v.Patch, other.Patch)
	}
}

// LessThan reports whether v sorts before other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other are the same version.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// GreaterThan reports whether v sorts after other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Max returns the largest Version in versions, or Zero if versions is empty.
func Max(versions []Version) Version {
	if len(versions) == 0 {
		return Zero
	}
	max := versions[0]
	for _, v := range versions[1:] {
		if v.Compare(max) > 0 {
			max = v
		}
	}
	return max
}
