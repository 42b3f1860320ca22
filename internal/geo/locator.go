// Package geo resolves where the user is: device position, permission to
// read it, and a human-readable label for a coordinate.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Accuracy is the requested or achieved precision of a position read.
type Accuracy int

const (
	AccuracyLowest Accuracy = iota + 1
	AccuracyLow
	AccuracyBalanced
	AccuracyHigh
	AccuracyHighest
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyLowest:
		return "lowest"
	case AccuracyLow:
		return "low"
	case AccuracyBalanced:
		return "balanced"
	case AccuracyHigh:
		return "high"
	case AccuracyHighest:
		return "highest"
	}
	return "unknown"
}

// Position is a single location read.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  Accuracy
	// City is filled when the source already knows a place name.
	City string
	At   time.Time
}

// Locator is the device location service.
type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (Position, error)
}

// ErrPermissionRequired is returned by CurrentPosition when permission has
// not been granted first.
var ErrPermissionRequired = errors.New("location permission not granted")

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

// geoAPIURL is a variable so tests can point it at an httptest server.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city"

// IPLocator derives the position from the public IP address via ip-api.com.
// Reads are refused until the Prompter has granted permission.
type IPLocator struct {
	Prompter   Prompter
	httpClient *http.Client
	granted    bool
}

// NewIPLocator creates an IPLocator asking p for permission.
func NewIPLocator(p Prompter) *IPLocator {
	return &IPLocator{
		Prompter:   p,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// RequestPermission asks the prompter once; a grant is remembered.
func (l *IPLocator) RequestPermission(ctx context.Context) (bool, error) {
	if l.granted {
		return true, nil
	}
	ok, err := l.Prompter.Confirm(ctx, "Allow vakit to look up your approximate location from your IP address?")
	if err != nil {
		return false, err
	}
	l.granted = ok
	return ok, nil
}

// CurrentPosition queries ip-api.com. An IP lookup never does better than
// AccuracyLow regardless of what was requested.
func (l *IPLocator) CurrentPosition(ctx context.Context, accuracy Accuracy) (Position, error) {
	if !l.granted {
		return Position{}, ErrPermissionRequired
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoAPIURL, nil)
	if err != nil {
		return Position{}, fmt.Errorf("failed to create geolocation request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Position{}, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return Position{}, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	got := AccuracyLow
	if accuracy < got {
		got = accuracy
	}
	return Position{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		Accuracy:  got,
		City:      result.City,
		At:        time.Now(),
	}, nil
}

// FixedLocator always reports the same coordinate. Permission is granted
// unless Deny is set.
type FixedLocator struct {
	Latitude  float64
	Longitude float64
	Deny      bool
}

func (l FixedLocator) RequestPermission(context.Context) (bool, error) {
	return !l.Deny, nil
}

func (l FixedLocator) CurrentPosition(_ context.Context, accuracy Accuracy) (Position, error) {
	if l.Deny {
		return Position{}, ErrPermissionRequired
	}
	return Position{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Accuracy:  accuracy,
		At:        time.Now(),
	}, nil
}

// ValidCoordinate reports whether lat/lon lie within WGS84 bounds.
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
