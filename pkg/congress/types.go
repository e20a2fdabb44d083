package congress

import (
	"strconv"
	"strings"
	"time"

	"github.com/elcontad0r/legislative-intelligence/pkg/citation"
	"github.com/elcontad0r/legislative-intelligence/pkg/graph"
	"github.com/elcontad0r/legislative-intelligence/pkg/types"
)

// PublicLaw is an enacted statute as reported by api.congress.gov.
type PublicLaw struct {
	Congress  int `json:"congress"`
	LawNumber int `json:"law_number"`

	// CanonicalID is "Pub. L. {congress}-{lawNumber}".
	CanonicalID string `json:"canonical_id"`

	Title       string      `json:"title,omitempty"`
	BillID      string      `json:"bill_id,omitempty"`
	EnactedDate *types.Date `json:"enacted_date,omitempty"`
	SourceURL   string      `json:"source_url,omitempty"`
	RetrievedAt time.Time   `json:"retrieved_at"`
}

// Node converts the law to its graph representation.
func (law PublicLaw) Node() graph.Node {
	props := map[string]any{
		"congress":     law.Congress,
		"law_number":   law.LawNumber,
		"retrieved_at": law.RetrievedAt,
	}
	if law.Title != "" {
		props["title"] = law.Title
	}
	if law.BillID != "" {
		props["bill_id"] = law.BillID
	}
	if law.EnactedDate != nil {
		props["enacted_date"] = law.EnactedDate
	}
	if law.SourceURL != "" {
		props["source_url"] = law.SourceURL
	}
	return graph.Node{Label: graph.LabelPublicLaw, ID: law.CanonicalID, Props: props}
}

// Bill is a bill or resolution as reported by api.congress.gov.
type Bill struct {
	Congress int    `json:"congress"`
	Type     string `json:"type"`
	Number   int    `json:"number"`

	// CanonicalID is e.g. "HR 3076 (117th)".
	CanonicalID string `json:"canonical_id"`

	Title          string      `json:"title,omitempty"`
	SponsorID      string      `json:"sponsor_id,omitempty"`
	IntroducedDate *types.Date `json:"introduced_date,omitempty"`
	LatestAction   string      `json:"latest_action,omitempty"`
	SourceURL      string      `json:"source_url,omitempty"`
	RetrievedAt    time.Time   `json:"retrieved_at"`
}

// Node converts the bill to its graph representation.
func (bill Bill) Node() graph.Node {
	props := map[string]any{
		"congress":     bill.Congress,
		"bill_type":    strings.ToLower(bill.Type),
		"number":       bill.Number,
		"retrieved_at": bill.RetrievedAt,
	}
	if bill.Title != "" {
		props["title"] = bill.Title
	}
	if bill.SponsorID != "" {
		props["sponsor_id"] = bill.SponsorID
	}
	if bill.IntroducedDate != nil {
		props["introduced_date"] = bill.IntroducedDate
	}
	if bill.LatestAction != "" {
		props["latest_action"] = bill.LatestAction
	}
	if bill.SourceURL != "" {
		props["source_url"] = bill.SourceURL
	}
	return graph.Node{Label: graph.LabelBill, ID: bill.CanonicalID, Props: props}
}

// API response payloads. The /law/{congress} endpoint returns the bills
// that became laws, with the law designations embedded per bill.

type lawListResponse struct {
	Bills      []billPayload     `json:"bills"`
	Pagination paginationPayload `json:"pagination"`
}

type billResponse struct {
	Bill billPayload `json:"bill"`
}

type billPayload struct {
	Congress       int                 `json:"congress"`
	Type           string              `json:"type"`
	Number         string              `json:"number"`
	Title          string              `json:"title"`
	IntroducedDate string              `json:"introducedDate"`
	OriginChamber  string              `json:"originChamber"`
	URL            string              `json:"url"`
	Laws           []lawPayload        `json:"laws"`
	Sponsors       []sponsorPayload    `json:"sponsors"`
	LatestAction   latestActionPayload `json:"latestAction"`
}

type lawPayload struct {
	// Number is "{congress}-{lawNumber}", e.g. "117-2".
	Number string `json:"number"`
	Type   string `json:"type"`
}

type sponsorPayload struct {
	BioguideID string `json:"bioguideId"`
	FullName   string `json:"fullName"`
}

type latestActionPayload struct {
	ActionDate string `json:"actionDate"`
	Text       string `json:"text"`
}

type paginationPayload struct {
	Count int    `json:"count"`
	Next  string `json:"next"`
}

// parseISODate converts a "2021-03-11" API date to a Date, or nil when
// the field is absent or malformed.
func parseISODate(value string) *types.Date {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	date := types.FromTime(parsed)
	return &date
}

// parseLawDesignation splits a "{congress}-{lawNumber}" designation.
func parseLawDesignation(designation string) (int, int, bool) {
	parts := strings.SplitN(designation, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	congress, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	lawNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return congress, lawNumber, true
}

func (payload billPayload) toBill(retrievedAt time.Time) (Bill, bool) {
	number, err := strconv.Atoi(payload.Number)
	if err != nil || payload.Congress == 0 {
		return Bill{}, false
	}

	bill := Bill{
		Congress:       payload.Congress,
		Type:           strings.ToLower(payload.Type),
		Number:         number,
		CanonicalID:    citation.NormalizeBill(payload.Type, number, payload.Congress),
		Title:          payload.Title,
		IntroducedDate: parseISODate(payload.IntroducedDate),
		LatestAction:   payload.LatestAction.Text,
		SourceURL:      payload.URL,
		RetrievedAt:    retrievedAt,
	}
	if len(payload.Sponsors) > 0 {
		bill.SponsorID = payload.Sponsors[0].BioguideID
	}
	return bill, true
}

// toLaws expands a bill payload into one PublicLaw per public-law
// designation it carries. Private laws are skipped.
func (payload billPayload) toLaws(retrievedAt time.Time) []PublicLaw {
	var laws []PublicLaw
	for _, designation := range payload.Laws {
		if !strings.EqualFold(designation.Type, "Public Law") {
			continue
		}
		congress, lawNumber, ok := parseLawDesignation(designation.Number)
		if !ok {
			continue
		}

		law := PublicLaw{
			Congress:    congress,
			LawNumber:   lawNumber,
			CanonicalID: citation.NormalizePublicLaw(congress, lawNumber),
			Title:       payload.Title,
			EnactedDate: parseISODate(payload.LatestAction.ActionDate),
			SourceURL:   payload.URL,
			RetrievedAt: retrievedAt,
		}
		if bill, ok := payload.toBill(retrievedAt); ok {
			law.BillID = bill.CanonicalID
		}
		laws = append(laws, law)
	}
	return laws
}
