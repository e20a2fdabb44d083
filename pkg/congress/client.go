// Package congress is a client for the Congress.gov API (v3), the
// Library of Congress service covering bills, public laws, and members.
// It enriches Public Law nodes discovered from U.S. Code source credits
// with titles, enactment dates, and originating bills.
//
// API documentation: https://api.congress.gov/
package congress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production Congress.gov API endpoint.
const DefaultBaseURL = "https://api.congress.gov/v3"

// DefaultUserAgent is the User-Agent header sent with API requests.
const DefaultUserAgent = "legislative-intelligence/1.0"

// pageLimit is the maximum page size the API accepts.
const pageLimit = 250

// Config holds configuration for a Client.
type Config struct {
	// APIKey authenticates against api.congress.gov. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Default: DefaultBaseURL.
	BaseURL string

	// RateLimit is the minimum interval between HTTP requests.
	// Default: 1 second.
	RateLimit time.Duration

	// HTTPClient is the underlying HTTP client used for requests.
	// If nil, http.DefaultClient is used (wrapped with rate limiting).
	HTTPClient HTTPClient

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string
}

// DefaultConfig returns a Config with sensible defaults. The API key
// must still be supplied by the caller.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		RateLimit: DefaultRequestInterval,
		UserAgent: DefaultUserAgent,
	}
}

// Client provides Congress.gov connectivity with rate limiting.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	apiKey     string
	userAgent  string
}

// NewClient creates a Client from the given configuration. An empty
// API key is an error; the API rejects unauthenticated requests.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("congress.gov API key required; set CONGRESS_GOV_API_KEY or pass one explicitly")
	}

	underlyingClient := config.HTTPClient
	if underlyingClient == nil {
		underlyingClient = http.DefaultClient
	}
	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRequestInterval
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		httpClient: NewRateLimitedHTTPClient(underlyingClient, rateLimit),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     config.APIKey,
		userAgent:  userAgent,
	}, nil
}

// Close releases the client's rate limiter.
func (c *Client) Close() {
	if limiter, ok := c.httpClient.(*RateLimitedHTTPClient); ok {
		limiter.Close()
	}
}

// GetLaw fetches a single public law. Returns nil without error when
// the law does not exist.
func (c *Client) GetLaw(ctx context.Context, congressNumber, lawNumber int) (*PublicLaw, error) {
	path := fmt.Sprintf("/law/%d/pub/%d", congressNumber, lawNumber)

	var payload billResponse
	found, err := c.getJSON(ctx, path, nil, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	laws := payload.Bill.toLaws(time.Now().UTC())
	for i := range laws {
		if laws[i].Congress == congressNumber && laws[i].LawNumber == lawNumber {
			return &laws[i], nil
		}
	}
	if len(laws) > 0 {
		return &laws[0], nil
	}
	return nil, nil
}

// GetLaws fetches every public law of a Congress, following pagination.
// The endpoint returns the bills that became laws, so one bill may
// expand to several PublicLaw records.
func (c *Client) GetLaws(ctx context.Context, congressNumber int) ([]PublicLaw, error) {
	path := fmt.Sprintf("/law/%d", congressNumber)
	retrievedAt := time.Now().UTC()

	var laws []PublicLaw
	offset := 0
	for {
		query := url.Values{
			"limit":  {strconv.Itoa(pageLimit)},
			"offset": {strconv.Itoa(offset)},
		}
		var payload lawListResponse
		found, err := c.getJSON(ctx, path, query, &payload)
		if err != nil {
			return nil, err
		}
		if !found || len(payload.Bills) == 0 {
			break
		}

		for _, bill := range payload.Bills {
			laws = append(laws, bill.toLaws(retrievedAt)...)
		}

		if payload.Pagination.Next == "" {
			break
		}
		offset += len(payload.Bills)
	}
	return laws, nil
}

// GetBill fetches a single bill by congress, type, and number. Returns
// nil without error when the bill does not exist.
func (c *Client) GetBill(ctx context.Context, congressNumber int, billType string, number int) (*Bill, error) {
	path := fmt.Sprintf("/bill/%d/%s/%d", congressNumber, strings.ToLower(billType), number)

	var payload billResponse
	found, err := c.getJSON(ctx, path, nil, &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	bill, ok := payload.Bill.toBill(time.Now().UTC())
	if !ok {
		return nil, fmt.Errorf("bill %d/%s/%d: malformed API payload", congressNumber, billType, number)
	}
	return &bill, nil
}

// getJSON performs a GET request against the API and decodes the JSON
// body into target. Returns found=false for a 404 response.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) (bool, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("format", "json")
	query.Set("api_key", c.apiKey)

	requestURL := c.baseURL + path + "?" + query.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request for %s: %w", path, err)
	}
	request.Header.Set("User-Agent", c.userAgent)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return false, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, response.Body)
		return false, nil
	}
	if response.StatusCode != http.StatusOK {
		return false, fmt.Errorf("requesting %s: unexpected status %d", path, response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decoding %s response: %w", path, err)
	}
	return true, nil
}
