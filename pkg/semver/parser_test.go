package semver

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMajor uint64
		wantErr   bool
	}{
		{name: "plain", input: "1.2.3", wantMajor: 1},
		{name: "prerelease", input: "2.0.0-beta.1", wantMajor: 2},
		{name: "build metadata", input: "3.1.0+build.5", wantMajor: 3},
		{name: "trimmed whitespace", input: "  1.0.0 ", wantMajor: 1},
		{name: "major only", input: "1", wantErr: true},
		{name: "missing patch", input: "1.2", wantErr: true},
		{name: "leading v", input: "v1.2.3", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("semver:parser_test - expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("semver:parser_test - unexpected error: %v", err)
			}
			if v.Major() != tt.wantMajor {
				t.Errorf("semver:parser_test - Major = %d, want %d", v.Major(), tt.wantMajor)
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"sales_agent", true},
		{"sales_outreach", true},
		{"legal.appointment", true},
		{"Agent-2", true},
		{"", false},
		{"2fast", false},
		{"has space", false},
		{"_leading", false},
	}

	for _, tt := range tests {
		if got := ValidateIdentifier(tt.input); got != tt.want {
			t.Errorf("semver:parser_test - ValidateIdentifier(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsMajorOnly(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"3", true},
		{"10", true},
		{"0", true},
		{"3.2.0", false},
		{"^3.2.0", false},
		{"", false},
		{"abc", false},
	}

	for _, tt := range tests {
		if got := IsMajorOnly(tt.input); got != tt.want {
			t.Errorf("semver:parser_test - IsMajorOnly(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExtractMajorFromRange(t *testing.T) {
	if got := ExtractMajorFromRange("4"); got != 4 {
		t.Errorf("semver:parser_test - ExtractMajorFromRange(4) = %d", got)
	}
	if got := ExtractMajorFromRange("^4.0.0"); got != -1 {
		t.Errorf("semver:parser_test - ExtractMajorFromRange(^4.0.0) = %d, want -1", got)
	}
}
