package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Defaults used by the app: Diyanet method with a one day hijri adjustment.
const (
	DefaultMethod     = 13
	DefaultAdjustment = 1
)

// Request describes a single day prayer-times lookup.
type Request struct {
	// Date is sent as a UNIX timestamp so the API resolves the day in the
	// zone of the coordinates, not the host's.
	Date       time.Time
	Latitude   float64
	Longitude  float64
	Method     int // negative lets the API choose
	Adjustment int // hijri date adjustment in days
}

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: defaultBaseURL,
	}
}

// FetchTimings fetches the prayer times for req.Date at the requested coordinates.
func (c *Client) FetchTimings(ctx context.Context, req Request) (*Response, error) {
	endpoint := fmt.Sprintf("%s/timings/%d", c.BaseURL, req.Date.Unix())

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', 6, 64))
	if req.Method >= 0 {
		params.Set("method", strconv.Itoa(req.Method))
	}
	if req.Adjustment != 0 {
		params.Set("adjustment", strconv.Itoa(req.Adjustment))
	}

	return c.doRequest(ctx, endpoint, params)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build API request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	if apiResp.Code != 200 {
		return nil, fmt.Errorf("API error: code=%d status=%s", apiResp.Code, apiResp.Status)
	}

	return &apiResp, nil
}
