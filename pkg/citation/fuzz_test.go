package citation

import (
	"strings"
	"testing"
)

// FuzzParse tests the citation parser with arbitrary input.
// Run with: go test -fuzz=FuzzParse -fuzztime=30s ./pkg/citation/...
func FuzzParse(f *testing.F) {
	seeds := []string{
		// U.S. Code
		"42 U.S.C. § 1395",
		"42 USC 1395x",
		"42 U. S. C. 1395ww-1",
		"26 U.S.C. §§ 1 et seq.",
		"42 U.S.C. § 1395(a)(1)(A)",
		"section 1862 of title 42",
		"sections 3729-3733 of title 31",

		// Public Laws
		"Pub. L. 111-148",
		"P.L. 89-97",
		"Public Law No. 115-97",
		"Pub. L. 111–148",

		// Bills
		"H.R. 3590",
		"S. 1234",
		"H.J. Res. 45",
		"S. Con. Res. 3 (111th Congress)",
		"H. Res. 5",

		// CFR, FR, Stat
		"42 CFR 405.1",
		"45 C.F.R. Part 164",
		"21 C.F.R. § 50",
		"78 FR 5566",
		"78 Fed. Reg. 5566",
		"79 Stat. 286",

		// Source-credit style text
		"(Pub. L. 89-97, title I, sect. 102, July 30, 1965, 79 Stat. 291; " +
			"Pub. L. 111-148, sect. 3201, Mar. 23, 2010, 124 Stat. 119.)",

		// Edge cases and malformed fragments
		"",
		"USC",
		"Section 42",
		"Pub. L.",
		"H.R.",
		"42 USC",
		"Stat. 291",
		"0 USC 0",
		"999 Stat. 99999999999999999999",
		strings.Repeat("42 USC 1395 ", 500),

		// Unicode and punctuation noise
		"42 U.S.C. § 1395 — as amended",
		"«Pub. L. 100-1»",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	parser := NewParser()

	f.Fuzz(func(t *testing.T, text string) {
		citations := parser.Parse(text)

		seen := make(map[string]bool)
		lastStart := -1
		for _, cite := range citations {
			if cite.Canonical == "" {
				t.Errorf("Empty canonical form for %q", cite.Original)
			}
			if seen[cite.Canonical] {
				t.Errorf("Duplicate canonical %q in result", cite.Canonical)
			}
			seen[cite.Canonical] = true

			if cite.Span.Start < 0 || cite.Span.End > len(text) || cite.Span.Start >= cite.Span.End {
				t.Errorf("Span %+v out of range for text of length %d", cite.Span, len(text))
			} else if text[cite.Span.Start:cite.Span.End] != cite.Original {
				t.Errorf("Span does not cover original: %q vs %q", text[cite.Span.Start:cite.Span.End], cite.Original)
			}
			if cite.Span.Start < lastStart {
				t.Errorf("Result not ordered by first occurrence: %d after %d", cite.Span.Start, lastStart)
			}
			lastStart = cite.Span.Start

			// Canonical forms must be stable under re-parsing.
			reparsed := parser.Parse(cite.Canonical)
			found := false
			for _, again := range reparsed {
				if again.Canonical == cite.Canonical {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Canonical %q does not round-trip", cite.Canonical)
			}
		}
	})
}
