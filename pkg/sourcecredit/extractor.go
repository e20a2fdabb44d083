// Package sourcecredit extracts Public Law history from U.S. Code
// source-credit notes. A source credit lists, separated by semicolons,
// the statute that created a section followed by every statute that
// amended it:
//
//	(Pub. L. 89-97, title I, sect. 102, July 30, 1965, 79 Stat. 291;
//	 Pub. L. 111-148, sect. 3201, Mar. 23, 2010, 124 Stat. 119.)
//
// The package recovers each law's enactment date and Statutes at Large
// reference from the clause that belongs to it, records the law's
// position within the credit (position 0 is the enacting law), and
// merges observations of the same law across many sections.
package sourcecredit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/elcontad0r/legislative-intelligence/pkg/citation"
	"github.com/elcontad0r/legislative-intelligence/pkg/types"
)

// ExtractedPublicLaw is a Public Law as observed from section
// source-credit text. Before merging it carries facts from a single
// section; after merging it aggregates every section that cites the law.
type ExtractedPublicLaw struct {
	Congress    int    `json:"congress"`
	LawNumber   int    `json:"law_number"`
	CanonicalID string `json:"canonical_id"` // "Pub. L. {congress}-{lawNumber}"

	// EnactedDate and StatutesAtLarge are nil/empty when the credit
	// text never spells them out.
	EnactedDate     *types.Date `json:"enacted_date,omitempty"`
	StatutesAtLarge string      `json:"statutes_at_large,omitempty"` // "{volume} Stat. {page}"

	// SourceSectionIDs is the set of canonical section ids whose
	// credits mention this law.
	SourceSectionIDs map[string]bool `json:"source_section_ids"`

	// PositionInSource maps section id to the zero-based order in which
	// this law appears within that section's credit. Position 0 marks
	// the enacting law; every other position marks an amendment.
	PositionInSource map[string]int `json:"position_in_source"`
}

// monthNumbers resolves month names and their common abbreviations
// (with or without a trailing period) to 1..12. Immutable after
// package init; safe for concurrent readers.
var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// datePattern matches "Month[.] Day, Year" fragments such as
// "Aug. 8, 2005" or "July 30, 1965".
var datePattern = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2}),\s+(\d{4})`)

// statPattern matches Statutes at Large fragments such as "119 Stat. 885".
var statPattern = regexp.MustCompile(`(?i)(\d{1,3})\s*stat\.?\s*(\d{1,5})`)

// Extractor pulls Public Law records out of source-credit text.
type Extractor struct {
	parser *citation.Parser
}

// NewExtractor creates an Extractor backed by a citation parser.
func NewExtractor() *Extractor {
	return &Extractor{parser: citation.NewParser()}
}

// Extract returns one ExtractedPublicLaw per Public Law occurrence in
// the source credit, in document order. Occurrence order defines each
// law's position for the given section. An empty or citation-free
// credit yields an empty slice, never an error.
func (extractor *Extractor) Extract(sourceCredit, sectionID string) []*ExtractedPublicLaw {
	occurrences := extractor.parser.ParsePublicLaws(sourceCredit)
	extracted := make([]*ExtractedPublicLaw, 0, len(occurrences))

	for position, occurrence := range occurrences {
		record := &ExtractedPublicLaw{
			Congress:         occurrence.Congress,
			LawNumber:        occurrence.LawNumber,
			CanonicalID:      occurrence.Canonical,
			SourceSectionIDs: map[string]bool{sectionID: true},
			PositionInSource: map[string]int{sectionID: position},
		}

		// The clause from this law up to the next semicolon (or end of
		// text) is the only text that belongs to this law; searching
		// beyond it would steal the date or Stat citation of the next
		// law in the credit.
		window := contextWindow(sourceCredit, occurrence.Span.Start)

		if dateMatch := datePattern.FindStringSubmatch(window); dateMatch != nil {
			record.EnactedDate = parseCreditDate(dateMatch[1], dateMatch[2], dateMatch[3])
		}
		if statMatch := statPattern.FindStringSubmatch(window); statMatch != nil {
			volume, _ := strconv.Atoi(statMatch[1])
			page, _ := strconv.Atoi(statMatch[2])
			record.StatutesAtLarge = citation.NormalizeStatutesAtLarge(volume, page)
		}

		extracted = append(extracted, record)
	}

	return extracted
}

// contextWindow returns the substring from start to the next semicolon,
// or to the end of text when no semicolon follows.
func contextWindow(text string, start int) string {
	end := strings.Index(text[start:], ";")
	if end == -1 {
		return text[start:]
	}
	return text[start : start+end]
}

// parseCreditDate resolves a matched date fragment to a Date. Unknown
// month names and impossible calendar dates yield nil rather than an
// error; a missing date never blocks extraction of the law itself.
func parseCreditDate(monthName, dayDigits, yearDigits string) *types.Date {
	month, known := monthNumbers[strings.ToLower(strings.TrimSuffix(monthName, "."))]
	if !known {
		return nil
	}
	day, err := strconv.Atoi(dayDigits)
	if err != nil {
		return nil
	}
	year, err := strconv.Atoi(yearDigits)
	if err != nil {
		return nil
	}
	date, valid := types.NewDate(year, month, day)
	if !valid {
		return nil
	}
	return &date
}
