package citation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Parser extracts legal citations from text. It is a pure matcher: text
// that fits no known pattern is silently ignored, and nothing is ever
// validated against an external source. Safe for concurrent use; all
// state is compiled patterns.
type Parser struct {
	// U.S. Code: "42 U.S.C. § 1395(a)(1)" and spacing/symbol variants,
	// with an optional trailing "et seq.".
	uscStandardPattern *regexp.Regexp
	// U.S. Code inverted form: "section 1395 of title 42".
	uscInvertedPattern *regexp.Regexp
	// Public Law: "Pub. L. 111-148", "P.L. 111-148", "Public Law No. 111-148",
	// with hyphen, en-dash, or em-dash separators.
	publicLawPattern *regexp.Regexp
	// Bills: "H.R. 3590", "S. 1234", "H.J. Res. 45 (111th Congress)", etc.
	billPattern *regexp.Regexp
	// C.F.R.: "42 CFR 405.1", "45 C.F.R. Part 164", "21 C.F.R. § 50".
	cfrPattern *regexp.Regexp
	// Federal Register: "78 FR 5566", "78 Fed. Reg. 5566".
	federalRegisterPattern *regexp.Regexp
	// Statutes at Large: "79 Stat. 286".
	statutesAtLargePattern *regexp.Regexp
}

// NewParser creates a citation parser with all patterns compiled.
func NewParser() *Parser {
	return &Parser{
		uscStandardPattern: regexp.MustCompile(
			`(?i)\b(\d{1,2})\s*u\.?\s*s\.?\s*c\.?\s*` +
				`(?:§+\s*|sections?\s+|sec\.?\s+)?` +
				`(\d+[a-z]*(?:-\d+[a-z]*)?)` +
				`(?:\s*\(([^)]+(?:\)\s*\([^)]+)*)\))?` +
				`(?:\s+et\s+seq\.?)?`),

		uscInvertedPattern: regexp.MustCompile(
			`(?i)\bsections?\s+(\d+[a-z]*(?:-\d+[a-z]*)?)` +
				`(?:\s*\(([^)]+(?:\)\s*\([^)]+)*)\))?` +
				`\s+of\s+title\s+(\d{1,2})`),

		publicLawPattern: regexp.MustCompile(
			`(?i)\b(?:pub(?:lic)?\.?\s*l(?:aw)?\.?\s*(?:no\.?\s*)?|p\.?\s*l\.?\s*)` +
				`(\d{1,3})\s*[-–—]\s*(\d{1,4})`),

		// Longer bill types come first so that "H. Res." is not consumed
		// by the bare "H.R." alternative.
		billPattern: regexp.MustCompile(
			`(?i)\b(h\.?\s*j\.?\s*res\.?|s\.?\s*j\.?\s*res\.?|` +
				`h\.?\s*con\.?\s*res\.?|s\.?\s*con\.?\s*res\.?|` +
				`h\.?\s*res\.?|s\.?\s*res\.?|h\.?\s*r\.?|s\.?)` +
				`\s*(\d{1,5})` +
				`(?:\s*\((\d{2,3})(?:th|st|nd|rd)?\s*(?:congress|cong\.?)?\))?`),

		cfrPattern: regexp.MustCompile(
			`(?i)\b(\d{1,2})\s*c\.?\s*f\.?\s*r\.?\s*` +
				`(?:§+\s*|part\s+|sections?\s+|sec\.?\s+)?` +
				`(\d+)(?:\.(\d+[a-z]*))?`),

		federalRegisterPattern: regexp.MustCompile(
			`(?i)\b(\d{1,3})\s*(?:fed\.?\s*reg\.?|fr)\s*(\d{1,6})`),

		statutesAtLargePattern: regexp.MustCompile(
			`(?i)\b(\d{1,3})\s*stat\.?\s*(\d{1,5})`),
	}
}

// Parse extracts all citations from text, deduplicated by canonical
// form and ordered by first occurrence. Returns an empty slice when no
// citation matches.
func (parser *Parser) Parse(text string) []*ParsedCitation {
	var citations []*ParsedCitation
	seen := make(map[string]bool)

	appendNew := func(found []*ParsedCitation) {
		for _, cite := range found {
			if !seen[cite.Canonical] {
				citations = append(citations, cite)
				seen[cite.Canonical] = true
			}
		}
	}

	appendNew(parser.ParseUSC(text))
	appendNew(parser.ParsePublicLaws(text))
	appendNew(parser.parseBills(text))
	appendNew(parser.parseCFR(text))
	appendNew(parser.parseFederalRegister(text))
	appendNew(parser.parseStatutesAtLarge(text))

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Span.Start < citations[j].Span.Start
	})

	return citations
}

// ParseUSC extracts only U.S. Code citations, in both the standard
// "42 U.S.C. § 1395" form and the inverted "section 1395 of title 42"
// form. Not deduplicated.
func (parser *Parser) ParseUSC(text string) []*ParsedCitation {
	var citations []*ParsedCitation

	for _, matchIndices := range parser.uscStandardPattern.FindAllStringSubmatchIndex(text, -1) {
		title := mustInt(text[matchIndices[2]:matchIndices[3]])
		section := text[matchIndices[4]:matchIndices[5]]
		subsection := submatch(text, matchIndices, 3)

		citations = append(citations, &ParsedCitation{
			Family:     FamilyUSCode,
			Canonical:  NormalizeUSC(title, section, subsection),
			Original:   text[matchIndices[0]:matchIndices[1]],
			Span:       Span{Start: matchIndices[0], End: matchIndices[1]},
			Title:      title,
			Section:    section,
			Subsection: NormalizeSubsection(subsection),
		})
	}

	for _, matchIndices := range parser.uscInvertedPattern.FindAllStringSubmatchIndex(text, -1) {
		section := text[matchIndices[2]:matchIndices[3]]
		subsection := submatch(text, matchIndices, 2)
		title := mustInt(text[matchIndices[6]:matchIndices[7]])

		citations = append(citations, &ParsedCitation{
			Family:     FamilyUSCode,
			Canonical:  NormalizeUSC(title, section, subsection),
			Original:   text[matchIndices[0]:matchIndices[1]],
			Span:       Span{Start: matchIndices[0], End: matchIndices[1]},
			Title:      title,
			Section:    section,
			Subsection: NormalizeSubsection(subsection),
		})
	}

	return citations
}

// ParsePublicLaws extracts only Public Law citations in document order.
// Not deduplicated: the same law cited twice yields two entries, which
// source-credit extraction relies on for positional role assignment.
func (parser *Parser) ParsePublicLaws(text string) []*ParsedCitation {
	var citations []*ParsedCitation

	for _, matchIndices := range parser.publicLawPattern.FindAllStringSubmatchIndex(text, -1) {
		congress := mustInt(text[matchIndices[2]:matchIndices[3]])
		lawNumber := mustInt(text[matchIndices[4]:matchIndices[5]])

		citations = append(citations, &ParsedCitation{
			Family:    FamilyPublicLaw,
			Canonical: NormalizePublicLaw(congress, lawNumber),
			Original:  text[matchIndices[0]:matchIndices[1]],
			Span:      Span{Start: matchIndices[0], End: matchIndices[1]},
			Congress:  congress,
			LawNumber: lawNumber,
		})
	}

	return citations
}

func (parser *Parser) parseBills(text string) []*ParsedCitation {
	var citations []*ParsedCitation

	for _, matchIndices := range parser.billPattern.FindAllStringSubmatchIndex(text, -1) {
		billType := text[matchIndices[2]:matchIndices[3]]
		number := mustInt(text[matchIndices[4]:matchIndices[5]])
		congress := 0
		if congressText := submatch(text, matchIndices, 3); congressText != "" {
			congress = mustInt(congressText)
		}

		citations = append(citations, &ParsedCitation{
			Family:     FamilyBill,
			Canonical:  NormalizeBill(billType, number, congress),
			Original:   text[matchIndices[0]:matchIndices[1]],
			Span:       Span{Start: matchIndices[0], End: matchIndices[1]},
			BillType:   normalizeBillType(billType),
			BillNumber: number,
			Congress:   congress,
		})
	}

	return citations
}

func (parser *Parser) parseCFR(text string) []*ParsedCitation {
	var citations []*ParsedCitation

	for _, matchIndices := range parser.cfrPattern.FindAllStringSubmatchIndex(text, -1) {
		title := mustInt(text[matchIndices[2]:matchIndices[3]])
		part := mustInt(text[matchIndices[4]:matchIndices[5]])
		section := submatch(text, matchIndices, 3)

		citations = append(citations, &ParsedCitation{
			Family:    FamilyCFR,
			Canonical: NormalizeCFR(title, part, section),
			Original:  text[matchIndices[0]:matchIndices[1]],
			Span:      Span{Start: matchIndices[0], End: matchIndices[1]},
			Title:     title,
			Part:      part,
			Section:   section,
		})
	}

	return citations
}

func (parser *Parser) parseFederalRegister(text string) []*ParsedCitation {
	var citations []*ParsedCitation

	for _, matchIndices := range parser.federalRegisterPattern.FindAllStringSubmatchIndex(text, -1) {
		volume := mustInt(text[matchIndices[2]:matchIndices[3]])
		page := mustInt(text[matchIndices[4]:matchIndices[5]])

		citations = append(citations, &ParsedCitation{
			Family:    FamilyFederalRegister,
			Canonical: NormalizeFederalRegister(volume, page),
			Original:  text[matchIndices[0]:matchIndices[1]],
			Span:      Span{Start: matchIndices[0], End: matchIndices[1]},
			Volume:    volume,
			Page:      page,
		})
	}

	return citations
}

func (parser *Parser) parseStatutesAtLarge(text string) []*ParsedCitation {
	var citations []*ParsedCitation

	for _, matchIndices := range parser.statutesAtLargePattern.FindAllStringSubmatchIndex(text, -1) {
		volume := mustInt(text[matchIndices[2]:matchIndices[3]])
		page := mustInt(text[matchIndices[4]:matchIndices[5]])

		citations = append(citations, &ParsedCitation{
			Family:    FamilyStatutesAtLarge,
			Canonical: NormalizeStatutesAtLarge(volume, page),
			Original:  text[matchIndices[0]:matchIndices[1]],
			Span:      Span{Start: matchIndices[0], End: matchIndices[1]},
			Volume:    volume,
			Page:      page,
		})
	}

	return citations
}

// normalizeBillType maps a raw bill-type match to its normalized form.
func normalizeBillType(raw string) string {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), " ", ""))
	if normalized, known := billTypeAliases[key]; known {
		return normalized
	}
	return key
}

// submatch returns the n-th capture group of a FindAllStringSubmatchIndex
// result, or "" when the group did not participate in the match.
func submatch(text string, matchIndices []int, group int) string {
	start, end := matchIndices[2*group], matchIndices[2*group+1]
	if start == -1 {
		return ""
	}
	return text[start:end]
}

// mustInt converts digits already validated by a pattern. Values too
// large for int are clamped by strconv's error path to zero, which no
// citation pattern can produce (all digit runs are bounded).
func mustInt(digits string) int {
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return value
}
