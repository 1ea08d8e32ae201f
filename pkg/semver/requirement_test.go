package semver

import "testing"

func TestSatisfies_Caret(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		// X > 0: any X.*.*
		{"^1.0.0", "1.0.0", true},
		{"^1.0.0", "1.5.0", true},
		{"^1.0.0", "2.0.0", false},
		{"^1.2.3", "1.2.2", false},
		// X = 0, Y > 0: only 0.Y.*
		{"^0.2.0", "0.2.5", true},
		{"^0.2.0", "0.3.0", false},
		// X = 0, Y = 0: only 0.0.Z
		{"^0.0.3", "0.0.3", true},
		{"^0.0.3", "0.0.4", false},
		// partial requirements
		{"^0.1", "0.1.83", true},
		{"^0.1", "0.2.0", false},
		{"^0", "0.5.0", true},
		{"^1", "1.5.0", true},
		{"^1", "2.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.req+"/"+tt.version, func(t *testing.T) {
			if got := Satisfies(tt.req, tt.version, Cargo); got != tt.want {
				t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.req, tt.version, got, tt.want)
			}
		})
	}
}

func TestSatisfies_Tilde(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{"~1.0.0", "1.0.5", true},
		{"~1.0.0", "1.1.0", false},
		{"~1.2", "1.2.9", true},
		{"~1.2", "1.3.0", false},
		{"~1", "1.9.0", true},
		{"~1", "2.0.0", false},
	}

	for _, tt := range tests {
		if got := Satisfies(tt.req, tt.version, Cargo); got != tt.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.req, tt.version, got, tt.want)
		}
	}
}

func TestSatisfies_Pessimistic(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		// ~> X.Y: >= X.Y, < X+1.0
		{"~> 2.2", "2.2.9", true},
		{"~> 2.2", "2.9.0", true},
		{"~> 2.2", "3.0.0", false},
		{"~> 2.2", "2.1.0", false},
		// ~> X.Y.Z: >= X.Y.Z, < X.Y+1.0
		{"~> 2.2.1", "2.2.9", true},
		{"~> 2.2.1", "2.3.0", false},
	}

	for _, tt := range tests {
		if got := Satisfies(tt.req, tt.version, Gem); got != tt.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.req, tt.version, got, tt.want)
		}
	}
}

func TestSatisfies_Pep440(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{">=8.0", "8.3.5", true},
		{">=8.0", "7.0.0", false},
		{">=1.0,<2.0", "1.9.0", true},
		{">=1.0,<2.0", "2.0.0", false},
		{"~=1.4.2", "1.4.9", true},
		{"~=1.4.2", "1.5.0", false},
		{"~=1.4", "1.9.0", true},
		{"~=1.4", "2.0.0", false},
		{"==2.0.0", "2.0.0", true},
		{"==2.0.0", "2.0.1", false},
		{"===1.0", "1.0", true},
		{"===1.0", "1.0.0", false},
		{"", "99.0.0", true}, // empty specifier matches anything
	}

	for _, tt := range tests {
		if got := Satisfies(tt.req, tt.version, Pep440); got != tt.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.req, tt.version, got, tt.want)
		}
	}
}

func TestSatisfies_NpmRanges(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{"^4.17.0", "4.17.21", true},
		{"^4.17.0", "5.0.0", false},
		{">=1.2.0 <2.0.0", "1.5.0", true},
		{">=1.2.0 <2.0.0", "2.0.0", false},
		{"1.x", "1.9.9", true},
		{"1.x", "2.0.0", false},
		{"1.2.*", "1.2.7", true},
		{"1.2.*", "1.3.0", false},
		{"1.0.0 || 2.0.0", "2.0.0", true},
		{"1.0.0 || 2.0.0", "3.0.0", false},
		{"*", "3.1.4", true},
	}

	for _, tt := range tests {
		if got := Satisfies(tt.req, tt.version, Npm); got != tt.want {
			t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.req, tt.version, got, tt.want)
		}
	}
}

func TestSatisfies_BareVersions(t *testing.T) {
	// Cargo treats bare versions as caret requirements.
	if !Satisfies("1", "1.40.0", Cargo) {
		t.Error(`Cargo "1" should admit 1.40.0`)
	}
	if Satisfies("1.0.100", "1.0.50", Cargo) {
		t.Error(`Cargo "1.0.100" should not admit 1.0.50`)
	}
	if !Satisfies("1.0.100", "1.0.210", Cargo) {
		t.Error(`Cargo "1.0.100" should admit 1.0.210`)
	}
	// Go versions are minimums within the same major.
	if !Satisfies("v1.2.0", "v1.9.0", Go) {
		t.Error(`Go "v1.2.0" should admit v1.9.0`)
	}
	if Satisfies("v1.2.0", "v2.0.0", Go) {
		t.Error(`Go "v1.2.0" should not admit v2.0.0`)
	}
	// Bundler bare versions are exact pins.
	if Satisfies("3.0.0", "3.0.1", Gem) {
		t.Error(`Gem "3.0.0" should not admit 3.0.1`)
	}
}

func TestSatisfies_Prereleases(t *testing.T) {
	// Prereleases never satisfy plain ranges.
	if Satisfies("^1.0.0", "2.0.0-rc.1", Cargo) {
		t.Error("prerelease should not satisfy ^1.0.0")
	}
	if Satisfies("*", "1.0.0-beta", Npm) {
		t.Error("prerelease should not satisfy *")
	}
	// But an explicit prerelease pin admits it.
	if !Satisfies("=2.0.0-rc.1", "2.0.0-rc.1", Cargo) {
		t.Error("exact prerelease pin should match itself")
	}
}

func TestSatisfies_Garbage(t *testing.T) {
	if Satisfies("not-a-version", "1.0.0", Cargo) {
		t.Error("garbage requirement should not match a valid version")
	}
	if !Satisfies("weird", "weird", Cargo) {
		t.Error("garbage requirement should string-match itself")
	}
}
