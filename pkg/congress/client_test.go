package congress

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elcontad0r/legislative-intelligence/pkg/types"
)

// fakeHTTPClient returns canned responses keyed by URL substring and
// records the requests it served.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	requests  []*http.Request
}

type fakeResponse struct {
	status int
	body   string
}

func (fake *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	fake.requests = append(fake.requests, req)
	for fragment, response := range fake.responses {
		if strings.Contains(req.URL.String(), fragment) {
			return &http.Response{
				StatusCode: response.status,
				Body:       io.NopCloser(bytes.NewReader([]byte(response.body))),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(bytes.NewReader([]byte(`{"error":"not found"}`))),
	}, nil
}

func newTestClient(t *testing.T, fake *fakeHTTPClient) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    "https://api.example.test/v3",
		RateLimit:  time.Microsecond,
		HTTPClient: fake,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}

const lawPageOne = `{
  "bills": [
    {
      "congress": 117,
      "type": "HR",
      "number": "1319",
      "title": "American Rescue Plan Act of 2021",
      "introducedDate": "2021-02-24",
      "url": "https://api.congress.gov/v3/bill/117/hr/1319",
      "laws": [{"number": "117-2", "type": "Public Law"}],
      "sponsors": [{"bioguideId": "Y000062", "fullName": "Rep. Yarmuth, John A."}],
      "latestAction": {"actionDate": "2021-03-11", "text": "Became Public Law No: 117-2."}
    }
  ],
  "pagination": {"count": 2, "next": "https://api.example.test/v3/law/117?offset=1"}
}`

const lawPageTwo = `{
  "bills": [
    {
      "congress": 117,
      "type": "S",
      "number": "1605",
      "title": "National Defense Authorization Act for Fiscal Year 2022",
      "url": "https://api.congress.gov/v3/bill/117/s/1605",
      "laws": [
        {"number": "117-81", "type": "Public Law"},
        {"number": "117-40", "type": "Private Law"}
      ],
      "latestAction": {"actionDate": "2021-12-27", "text": "Became Public Law No: 117-81."}
    }
  ],
  "pagination": {"count": 2}
}`

func TestGetLawsPaginates(t *testing.T) {
	fake := &fakeHTTPClient{responses: map[string]fakeResponse{
		"offset=0": {http.StatusOK, lawPageOne},
		"offset=1": {http.StatusOK, lawPageTwo},
	}}
	client := newTestClient(t, fake)

	laws, err := client.GetLaws(context.Background(), 117)
	if err != nil {
		t.Fatalf("GetLaws failed: %v", err)
	}
	// The private-law designation on the second bill is skipped.
	if len(laws) != 2 {
		t.Fatalf("Expected 2 public laws, got %d: %+v", len(laws), laws)
	}

	first := laws[0]
	if first.CanonicalID != "Pub. L. 117-2" {
		t.Errorf("Expected canonical id %q, got %q", "Pub. L. 117-2", first.CanonicalID)
	}
	if first.Congress != 117 || first.LawNumber != 2 {
		t.Errorf("Expected 117-2, got %d-%d", first.Congress, first.LawNumber)
	}
	if first.Title != "American Rescue Plan Act of 2021" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.BillID != "HR 1319 (117th)" {
		t.Errorf("Expected originating bill id, got %q", first.BillID)
	}
	if first.EnactedDate == nil || !first.EnactedDate.Equal(types.Date{Year: 2021, Month: 3, Day: 11}) {
		t.Errorf("Expected enacted date 2021-03-11, got %+v", first.EnactedDate)
	}

	if laws[1].CanonicalID != "Pub. L. 117-81" {
		t.Errorf("Expected canonical id %q, got %q", "Pub. L. 117-81", laws[1].CanonicalID)
	}
	if len(fake.requests) != 2 {
		t.Errorf("Expected 2 page requests, got %d", len(fake.requests))
	}
}

func TestGetLawsSendsAPIKey(t *testing.T) {
	fake := &fakeHTTPClient{responses: map[string]fakeResponse{
		"offset=0": {http.StatusOK, `{"bills": [], "pagination": {"count": 0}}`},
	}}
	client := newTestClient(t, fake)

	if _, err := client.GetLaws(context.Background(), 117); err != nil {
		t.Fatalf("GetLaws failed: %v", err)
	}
	if len(fake.requests) == 0 {
		t.Fatal("Expected at least one request")
	}
	query := fake.requests[0].URL.Query()
	if query.Get("api_key") != "test-key" {
		t.Errorf("Expected api_key parameter, got %q", query.Get("api_key"))
	}
	if query.Get("format") != "json" {
		t.Errorf("Expected format=json parameter, got %q", query.Get("format"))
	}
}

func TestGetLawNotFound(t *testing.T) {
	fake := &fakeHTTPClient{responses: map[string]fakeResponse{}}
	client := newTestClient(t, fake)

	law, err := client.GetLaw(context.Background(), 1, 9999)
	if err != nil {
		t.Fatalf("GetLaw failed: %v", err)
	}
	if law != nil {
		t.Errorf("Expected nil for missing law, got %+v", law)
	}
}

func TestGetBill(t *testing.T) {
	fake := &fakeHTTPClient{responses: map[string]fakeResponse{
		"/bill/117/hr/3076": {http.StatusOK, `{
			"bill": {
				"congress": 117,
				"type": "HR",
				"number": "3076",
				"title": "Postal Service Reform Act of 2022",
				"introducedDate": "2021-05-11",
				"url": "https://api.congress.gov/v3/bill/117/hr/3076",
				"sponsors": [{"bioguideId": "M000087"}],
				"latestAction": {"actionDate": "2022-04-06", "text": "Became Public Law No: 117-108."}
			}
		}`},
	}}
	client := newTestClient(t, fake)

	bill, err := client.GetBill(context.Background(), 117, "HR", 3076)
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if bill == nil {
		t.Fatal("Expected a bill")
	}
	if bill.CanonicalID != "HR 3076 (117th)" {
		t.Errorf("Expected canonical id %q, got %q", "HR 3076 (117th)", bill.CanonicalID)
	}
	if bill.SponsorID != "M000087" {
		t.Errorf("Expected sponsor id, got %q", bill.SponsorID)
	}
	if bill.IntroducedDate == nil || !bill.IntroducedDate.Equal(types.Date{Year: 2021, Month: 5, Day: 11}) {
		t.Errorf("Expected introduced date 2021-05-11, got %+v", bill.IntroducedDate)
	}
}

func TestGetLawsServerError(t *testing.T) {
	fake := &fakeHTTPClient{responses: map[string]fakeResponse{
		"offset=0": {http.StatusInternalServerError, `{"error": "boom"}`},
	}}
	client := newTestClient(t, fake)

	if _, err := client.GetLaws(context.Background(), 117); err == nil {
		t.Fatal("Expected error for server failure")
	}
}

func TestPublicLawNode(t *testing.T) {
	july30 := types.Date{Year: 1965, Month: 7, Day: 30}
	law := PublicLaw{
		Congress:    89,
		LawNumber:   97,
		CanonicalID: "Pub. L. 89-97",
		Title:       "Social Security Amendments of 1965",
		EnactedDate: &july30,
		RetrievedAt: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
	}

	node := law.Node()
	if node.ID != "Pub. L. 89-97" {
		t.Errorf("Expected node id %q, got %q", "Pub. L. 89-97", node.ID)
	}
	if node.Props["congress"] != 89 {
		t.Errorf("Expected congress prop, got %v", node.Props["congress"])
	}
	if node.Props["enacted_date"] != &july30 {
		t.Errorf("Expected enacted_date prop, got %v", node.Props["enacted_date"])
	}
}
