package version

import (
	"testing"
)

// FuzzParse tests the semantic version parser with fuzzing.
// Run with: go test -fuzz=FuzzParse -fuzztime=30s
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Valid versions
		"1.0.0",
		"0.0.1",
		"10.20.30",
		"1.2.3-alpha",
		"1.2.3-beta.1",
		"1.2.3-alpha.beta",
		"1.2.3-0.3.7",
		"1.2.3+build",
		"1.2.3-alpha.1+build.456",
		"v1.0.0",
		"v1.2.3-rc.1",
		" 2.0.0 ",
		// Invalid versions
		"",
		"v",
		"1",
		"1.0",
		"1.0.0.0",
		"a.b.c",
		"01.0.0",
		"1.0.0-",
		"1.0.0+",
		"1.0.0-+",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		v, err := Parse(input)
		if err != nil {
			return
		}

		// A successfully parsed version must round-trip through its
		// canonical form and compare equal to itself.
		reparsed, err := Parse(v.String())
		if err != nil {
			t.Fatalf("canonical form %q of %q failed to parse: %v", v.String(), input, err)
		}
		if v.Compare(reparsed) != 0 {
			t.Fatalf("version %q does not compare equal to its canonical form %q", input, v.String())
		}
	})
}

// FuzzCompare checks ordering laws on pairs of parsed versions.
func FuzzCompare(f *testing.F) {
	f.Add("1.0.0", "2.0.0")
	f.Add("1.0.0-alpha", "1.0.0")
	f.Add("1.0.0-alpha.1", "1.0.0-alpha.beta")
	f.Add("1.0.0+a", "1.0.0+b")

	f.Fuzz(func(t *testing.T, a, b string) {
		va, errA := Parse(a)
		vb, errB := Parse(b)
		if errA != nil || errB != nil {
			return
		}

		// Antisymmetry and reflexivity.
		if va.Compare(vb) != -vb.Compare(va) {
			t.Fatalf("Compare(%q, %q) is not antisymmetric", a, b)
		}
		if va.Compare(va) != 0 {
			t.Fatalf("Compare(%q, %q) != 0 for identical value", a, a)
		}
	})
}
