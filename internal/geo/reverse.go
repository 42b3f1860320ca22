package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	nominatimBaseURL = "https://nominatim.openstreetmap.org"
	userAgent        = "PrayerTimesApp/1.0"
	acceptLanguage   = "tr-TR"
)

// Address is the subset of a Nominatim address used for labels.
type Address struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Province     string `json:"province"`
	CityDistrict string `json:"city_district"`
	County       string `json:"county"`
}

type reverseResponse struct {
	Error   string   `json:"error"`
	Address *Address `json:"address"`
}

// Geocoder turns a coordinate into a place label.
type Geocoder interface {
	Label(ctx context.Context, lat, lon float64) (string, error)
}

// Nominatim is a reverse geocoder backed by OpenStreetMap Nominatim.
type Nominatim struct {
	BaseURL    string
	httpClient *http.Client
}

// NewNominatim creates a client for the public Nominatim instance.
func NewNominatim() *Nominatim {
	return &Nominatim{
		BaseURL:    nominatimBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Label returns the best label for the coordinate. Transport, status and
// provider errors are returned as-is; callers fall back to CoordinateLabel.
// A response with no usable address fields yields the coordinate string.
func (n *Nominatim) Label(ctx context.Context, lat, lon float64) (string, error) {
	url := fmt.Sprintf("%s/reverse?format=json&lat=%s&lon=%s", n.BaseURL,
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create reverse lookup request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("reverse lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode reverse lookup response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("reverse lookup failed: %s", result.Error)
	}

	if result.Address != nil {
		if label := result.Address.Label(); label != "" {
			return label, nil
		}
	}
	return CoordinateLabel(lat, lon), nil
}

// Label picks "town/province", then "county/province", then the first
// non-empty of province, city, town, city_district.
func (a Address) Label() string {
	switch {
	case a.Town != "" && a.Province != "":
		return a.Town + "/" + a.Province
	case a.County != "" && a.Province != "":
		return a.County + "/" + a.Province
	case a.Province != "":
		return a.Province
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	case a.CityDistrict != "":
		return a.CityDistrict
	}
	return ""
}

// CoordinateLabel formats a coordinate for display when no place name is known.
func CoordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}
