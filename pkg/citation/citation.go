// Package citation extracts and normalizes United States legal citations
// from free-form statutory text. It recognizes six citation families
// (U.S. Code, Public Law, bill, C.F.R., Federal Register, Statutes at
// Large) and reduces every match to a single canonical string that the
// rest of the system uses as a graph key.
package citation

import (
	"fmt"
	"regexp"
	"strings"
)

// Family classifies the kind of legal citation.
type Family string

const (
	FamilyUSCode          Family = "usc"
	FamilyPublicLaw       Family = "public_law"
	FamilyBill            Family = "bill"
	FamilyCFR             Family = "cfr"
	FamilyFederalRegister Family = "federal_register"
	FamilyStatutesAtLarge Family = "statutes_at_large"
)

// Span is a half-open [Start, End) byte range in the source text.
// Spans order citations and scope context lookups; they never
// participate in citation identity.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParsedCitation is one recognized citation occurrence. Two citations
// with equal Canonical strings are the same citation regardless of how
// they were spelled in the source.
type ParsedCitation struct {
	Family    Family `json:"family"`
	Canonical string `json:"canonical"`
	Original  string `json:"original"`
	Span      Span   `json:"span"`

	// U.S. Code and C.F.R. fields.
	Title      int    `json:"title,omitempty"`
	Section    string `json:"section,omitempty"`
	Subsection string `json:"subsection,omitempty"`
	Part       int    `json:"part,omitempty"`

	// Public Law and bill fields.
	Congress   int    `json:"congress,omitempty"`
	LawNumber  int    `json:"law_number,omitempty"`
	BillType   string `json:"bill_type,omitempty"`
	BillNumber int    `json:"bill_number,omitempty"`

	// Federal Register and Statutes at Large fields.
	Volume int `json:"volume,omitempty"`
	Page   int `json:"page,omitempty"`
}

// billTypeAliases maps the common spellings of congressional bill types
// (periods and spaces stripped, lowercased) to their normalized form.
// Immutable after package init; safe for concurrent readers.
var billTypeAliases = map[string]string{
	"hr":      "hr",
	"s":       "s",
	"hjres":   "hjres",
	"sjres":   "sjres",
	"hconres": "hconres",
	"sconres": "sconres",
	"hres":    "hres",
	"sres":    "sres",
}

// subsectionSplitPattern splits a raw subsection grouping such as
// "(a)(1)(A)" on the boundaries between parenthesized parts.
var subsectionSplitPattern = regexp.MustCompile(`\)\s*\(`)

// NormalizeSubsection converts a raw subsection grouping to canonical
// dotted form: "(a)(1)(A)" becomes "a.1.A". The conversion is
// best-effort: input that does not look like a parenthesized grouping
// is returned with only the outer parentheses stripped.
func NormalizeSubsection(raw string) string {
	if raw == "" {
		return ""
	}
	trimmed := strings.Trim(raw, "()")
	parts := subsectionSplitPattern.Split(trimmed, -1)
	return strings.Join(parts, ".")
}

// SubsectionParts splits a canonical dotted subsection back into its
// structured parts: "a.1.A" becomes ["a", "1", "A"].
func SubsectionParts(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, ".")
}

// NormalizeUSC builds the canonical U.S. Code citation string.
// The subsection, if present, is normalized to dotted form.
func NormalizeUSC(title int, section string, subsection string) string {
	canonical := fmt.Sprintf("%d USC %s", title, section)
	if subsection != "" {
		canonical += "(" + NormalizeSubsection(subsection) + ")"
	}
	return canonical
}

// NormalizePublicLaw builds the canonical Public Law citation string.
func NormalizePublicLaw(congress, lawNumber int) string {
	return fmt.Sprintf("Pub. L. %d-%d", congress, lawNumber)
}

// NormalizeBill builds the canonical bill citation string. The congress
// number is optional; zero means unknown.
func NormalizeBill(billType string, number, congress int) string {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(billType, ".", ""), " ", ""))
	normalizedType, known := billTypeAliases[key]
	if !known {
		normalizedType = key
	}
	canonical := fmt.Sprintf("%s %d", strings.ToUpper(normalizedType), number)
	if congress > 0 {
		canonical += fmt.Sprintf(" (%dth)", congress)
	}
	return canonical
}

// NormalizeCFR builds the canonical C.F.R. citation string.
// The section, if present, is appended after a dot.
func NormalizeCFR(title, part int, section string) string {
	canonical := fmt.Sprintf("%d CFR %d", title, part)
	if section != "" {
		canonical += "." + section
	}
	return canonical
}

// NormalizeFederalRegister builds the canonical Federal Register
// citation string.
func NormalizeFederalRegister(volume, page int) string {
	return fmt.Sprintf("%d FR %d", volume, page)
}

// NormalizeStatutesAtLarge builds the canonical Statutes at Large
// citation string.
func NormalizeStatutesAtLarge(volume, page int) string {
	return fmt.Sprintf("%d Stat. %d", volume, page)
}
