// Package uscxml parses United States Legislative Markup (USLM) XML,
// the format in which the Office of the Law Revision Counsel publishes
// the U.S. Code at uscode.house.gov. It extracts one record per
// section, including the source credit that carries the section's
// Public Law history.
package uscxml

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/elcontad0r/legislative-intelligence/pkg/citation"
	"github.com/elcontad0r/legislative-intelligence/pkg/graph"
)

// Section is one U.S. Code section as parsed from a USLM title file.
type Section struct {
	// ID is the canonical citation, e.g. "42 USC 1395".
	ID string `json:"id"`

	Title   int    `json:"title"`
	Section string `json:"section"`

	// Identifier is the USLM identifier attribute, e.g. "/us/usc/t42/s1395".
	Identifier string `json:"identifier,omitempty"`

	Heading        string `json:"heading,omitempty"`
	TitleName      string `json:"title_name,omitempty"`
	ChapterNumber  string `json:"chapter_number,omitempty"`
	ChapterHeading string `json:"chapter_heading,omitempty"`

	// Text is the section body with source credits and notes stripped.
	Text string `json:"text,omitempty"`

	// SourceCredit is the parenthesized statute history, e.g.
	// "(Pub. L. 89-97, July 30, 1965, 79 Stat. 291; ...)".
	SourceCredit string `json:"source_credit,omitempty"`

	// HistoryNote is the editorial amendments note, when present.
	HistoryNote string `json:"history_note,omitempty"`

	RetrievedAt time.Time `json:"retrieved_at"`
}

// sectionNumberPattern pulls the section number out of a USLM
// identifier such as "/us/usc/t42/s1395ww-1".
var sectionNumberPattern = regexp.MustCompile(`/s(\d+[a-z]*(?:-\d+[a-z]*)?)`)

// titleNumberPattern pulls the title number out of a root identifier
// such as "/us/usc/t42".
var titleNumberPattern = regexp.MustCompile(`/t(\d+)`)

// textSkipTags are section children excluded from body text. Credits
// and notes are captured separately and would pollute the text with
// editorial material.
var textSkipTags = map[string]bool{
	"sourceCredit": true,
	"notes":        true,
	"note":         true,
	"amendment":    true,
}

// ParseTitle parses a USLM title document and returns its sections in
// document order. Sections whose identifier carries no section number
// (repealed ranges, reserved slots) are skipped.
func ParseTitle(reader io.Reader) ([]Section, error) {
	document, err := xmlquery.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing USLM document: %w", err)
	}

	titleNumber, titleName, err := titleInfo(document)
	if err != nil {
		return nil, err
	}

	retrievedAt := time.Now().UTC()
	var sections []Section
	for _, element := range xmlquery.Find(document, "//section") {
		section, ok := parseSection(element, titleNumber, titleName)
		if !ok {
			continue
		}
		section.RetrievedAt = retrievedAt
		sections = append(sections, section)
	}
	return sections, nil
}

// ParseTitleFile parses a single USLM title file such as usc42.xml.
func ParseTitleFile(path string) ([]Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	sections, err := ParseTitle(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sections, nil
}

// ParseDirectory parses every usc*.xml file in a directory, in
// lexical filename order.
func ParseDirectory(dir string) ([]Section, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "usc*.xml"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)

	var sections []Section
	for _, path := range paths {
		parsed, err := ParseTitleFile(path)
		if err != nil {
			return nil, err
		}
		sections = append(sections, parsed...)
	}
	return sections, nil
}

// Node converts the section to its graph representation. The chapter
// map nests intentionally; the store flattens it to chapter_number and
// chapter_heading at write time.
func (s Section) Node() graph.Node {
	props := map[string]any{
		"title":        s.Title,
		"section":      s.Section,
		"retrieved_at": s.RetrievedAt,
	}
	if s.Heading != "" {
		props["heading"] = s.Heading
	}
	if s.TitleName != "" {
		props["title_name"] = s.TitleName
	}
	if s.ChapterNumber != "" || s.ChapterHeading != "" {
		props["chapter"] = map[string]any{
			"number":  s.ChapterNumber,
			"heading": s.ChapterHeading,
		}
	}
	if s.Text != "" {
		props["text"] = s.Text
	}
	if s.SourceCredit != "" {
		props["source_credit"] = s.SourceCredit
	}
	if s.HistoryNote != "" {
		props["history_note"] = s.HistoryNote
	}
	if s.Identifier != "" {
		props["source_url"] = fmt.Sprintf(
			"https://uscode.house.gov/view.xhtml?req=granuleid:USC-prelim-title%d-section%s",
			s.Title, s.Section,
		)
	}
	return graph.Node{Label: graph.LabelUSCSection, ID: s.ID, Props: props}
}

func titleInfo(document *xmlquery.Node) (int, string, error) {
	// USLM metadata carries a dc:title element whose local name is also
	// "title", so pick the structural element: the one carrying an
	// identifier or number attribute.
	var titleElement *xmlquery.Node
	for _, candidate := range xmlquery.Find(document, "//title") {
		if candidate.SelectAttr("identifier") != "" || candidate.SelectAttr("number") != "" {
			titleElement = candidate
			break
		}
	}
	if titleElement == nil {
		return 0, "", fmt.Errorf("document has no title element")
	}

	titleName := ""
	if heading := xmlquery.FindOne(titleElement, "heading"); heading != nil {
		titleName = collapseWhitespace(heading.InnerText())
	}

	if match := titleNumberPattern.FindStringSubmatch(titleElement.SelectAttr("identifier")); match != nil {
		number, _ := strconv.Atoi(match[1])
		return number, titleName, nil
	}
	if number, err := strconv.Atoi(titleElement.SelectAttr("number")); err == nil {
		return number, titleName, nil
	}
	return 0, "", fmt.Errorf("could not determine title number")
}

func parseSection(element *xmlquery.Node, titleNumber int, titleName string) (Section, bool) {
	identifier := element.SelectAttr("identifier")
	match := sectionNumberPattern.FindStringSubmatch(identifier)
	if match == nil {
		return Section{}, false
	}
	sectionNumber := match[1]

	section := Section{
		ID:         citation.NormalizeUSC(titleNumber, sectionNumber, ""),
		Title:      titleNumber,
		Section:    sectionNumber,
		Identifier: identifier,
		TitleName:  titleName,
	}

	if heading := xmlquery.FindOne(element, "heading"); heading != nil {
		section.Heading = collapseWhitespace(heading.InnerText())
	}
	if credit := xmlquery.FindOne(element, "sourceCredit"); credit != nil {
		section.SourceCredit = collapseWhitespace(credit.InnerText())
	}
	section.HistoryNote = historyNote(element)
	section.Text = sectionText(element)
	section.ChapterNumber, section.ChapterHeading = chapterInfo(element)

	return section, true
}

// chapterInfo walks up from the section to the enclosing chapter, when
// one exists. Some titles nest sections under subchapters or parts, so
// the walk continues to the document root.
func chapterInfo(element *xmlquery.Node) (string, string) {
	for parent := element.Parent; parent != nil; parent = parent.Parent {
		if parent.Type != xmlquery.ElementNode || parent.Data != "chapter" {
			continue
		}
		heading := ""
		if headingElement := xmlquery.FindOne(parent, "heading"); headingElement != nil {
			heading = collapseWhitespace(headingElement.InnerText())
		}
		return parent.SelectAttr("number"), heading
	}
	return "", ""
}

// sectionText joins the text of the section's content children,
// skipping credits and notes.
func sectionText(element *xmlquery.Node) string {
	var parts []string
	for child := element.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || textSkipTags[child.Data] {
			continue
		}
		if text := collapseWhitespace(child.InnerText()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// historyNote prefers the section's notes block; absent one, it joins
// any inline amendment notes.
func historyNote(element *xmlquery.Node) string {
	if notes := xmlquery.FindOne(element, "notes"); notes != nil {
		return collapseWhitespace(notes.InnerText())
	}
	var parts []string
	for _, note := range xmlquery.Find(element, ".//note[@type='amendment']") {
		if text := collapseWhitespace(note.InnerText()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
