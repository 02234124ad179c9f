package semver

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

const resolverLogPrefix = "semver:resolver"

// Matcher checks versions against a range. A major-only range ("2") matches
// every version with that major; anything else is a Masterminds constraint
// ("^1.2.0", "~1.0", ">=1.0.0 <2.0.0").
type Matcher struct {
	raw        string
	major      int
	constraint *masterminds.Constraints
}

// NewMatcher compiles rangeStr. An empty range matches everything.
func NewMatcher(rangeStr string) (*Matcher, error) {
	m := &Matcher{raw: rangeStr, major: -1}
	if rangeStr == "" {
		return m, nil
	}
	if IsMajorOnly(rangeStr) {
		m.major = ExtractMajorFromRange(rangeStr)
		return m, nil
	}
	c, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid version range %q: %w", resolverLogPrefix, rangeStr, err)
	}
	m.constraint = c
	return m, nil
}

// Match reports whether version satisfies the range. Unparseable versions
// only match the empty range.
func (m *Matcher) Match(version string) bool {
	if m.raw == "" {
		return true
	}
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false
	}
	if m.major >= 0 {
		return int(sv.Major()) == m.major
	}
	return m.constraint.Check(sv)
}
