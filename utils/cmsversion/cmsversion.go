// Package cmsversion parses and compares the loosely structured version
// strings content-management releases ship with. Strings like "10.2.x-dev"
// or "7.89" compare by their leading numeric segments; non-numeric tails
// are tolerated and ignored.
package cmsversion

import (
	"strconv"
	"strings"
)

// Version is a parsed dotted version. Only the numeric prefix of each string
// participates in comparison.
type Version struct {
	segments []int
	raw      string
}

// Parse builds a Version from raw. The string must begin with a numeric
// segment; later segments may be placeholders ("x", "dev") and terminate
// parsing without error.
func Parse(raw string) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Version{}, ParseError{Raw: raw, Reason: "empty version string"}
	}

	// Strip pre-release / build suffixes like "-dev" or "+security".
	base := trimmed
	if i := strings.IndexAny(base, "-+ "); i >= 0 {
		base = base[:i]
	}

	var segments []int
	for _, part := range strings.Split(base, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		segments = append(segments, n)
	}
	if len(segments) == 0 {
		return Version{}, ParseError{Raw: raw, Reason: "no leading numeric segment"}
	}
	return Version{segments: segments, raw: trimmed}, nil
}

// String returns the original trimmed version string.
func (v Version) String() string { return v.raw }

// Compare returns -1, 0 or 1 ordering v against other. Missing segments
// compare as zero, so "10.2" equals "10.2.0".
func (v Version) Compare(other Version) int {
	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.segments) {
			a = v.segments[i]
		}
		if i < len(other.segments) {
			b = other.segments[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// AtLeast reports whether the version string have is min or newer. Either
// string failing to parse yields the parse error.
func AtLeast(have, min string) (bool, error) {
	hv, err := Parse(have)
	if err != nil {
		return false, err
	}
	mv, err := Parse(min)
	if err != nil {
		return false, err
	}
	return hv.Compare(mv) >= 0, nil
}
