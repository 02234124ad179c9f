// Package semver provides agent version parsing and SemVer constraint matching.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:parser"

var (
	identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
	majorOnlyRegex  = regexp.MustCompile(`^\d+$`)
	strictRegex     = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)
)

// ParseVersion parses a strict MAJOR.MINOR.PATCH version (optional prerelease/build).
func ParseVersion(input string) (*masterminds.Version, error) {
	raw := strings.TrimSpace(input)
	if !strictRegex.MatchString(raw) {
		return nil, fmt.Errorf("%s - invalid version %q, want MAJOR.MINOR.PATCH", logPrefix, input)
	}
	v, err := masterminds.StrictNewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid version %q: %w", logPrefix, input, err)
	}
	return v, nil
}

// ValidateVersion reports whether input is a strict semantic version.
func ValidateVersion(input string) bool {
	_, err := ParseVersion(input)
	return err == nil
}

// ValidateIdentifier validates an agent or task name (letters, digits, dots,
// hyphens and underscores, starting with a letter).
func ValidateIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// ExtractMajorFromRange extracts the major version if the range is major-only.
// Returns -1 if not a major-only range.
func ExtractMajorFromRange(rangeStr string) int {
	if !IsMajorOnly(rangeStr) {
		return -1
	}
	major, err := strconv.Atoi(rangeStr)
	if err != nil {
		return -1
	}
	return major
}
