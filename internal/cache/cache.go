// Package cache holds the two persisted records, the downloaded schedule and
// the selected location, serialized as JSON in a store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/vakit/internal/prayer"
	"github.com/smokyabdulrahman/vakit/internal/store"
)

// Store keys.
const (
	EntryKey    = "prayer_cache"
	LocationKey = "selected_location"
)

// FreshnessThreshold is how long a downloaded schedule is served without refetching.
const FreshnessThreshold = 6 * time.Hour

// Entry is a downloaded schedule with the metadata needed to judge it.
type Entry struct {
	Schedule   prayer.Schedule `json:"schedule"`
	Special    bool            `json:"special"`
	Hijri      string          `json:"hijri,omitempty"`
	Timezone   string          `json:"timezone,omitempty"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Method     int             `json:"method"`
	Adjustment int             `json:"adjustment"`
}

// Fresh reports whether the entry is younger than FreshnessThreshold at now.
// At exactly the threshold it is stale.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < FreshnessThreshold
}

// Matches reports whether the entry was fetched with the given calculation settings.
func (e Entry) Matches(method, adjustment int) bool {
	return e.Method == method && e.Adjustment == adjustment
}

// Location is the user's chosen place. It is always saved whole.
type Location struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	City      string     `json:"city,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Repository reads and writes the records through a store.Store.
type Repository struct {
	store store.Store
}

// NewRepository wraps s.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// LoadEntry returns the cached schedule, or nil if none is stored.
func (r *Repository) LoadEntry(ctx context.Context) (*Entry, error) {
	var e Entry
	ok, err := r.load(ctx, EntryKey, &e)
	if !ok {
		return nil, err
	}
	return &e, nil
}

// SaveEntry replaces the cached schedule.
func (r *Repository) SaveEntry(ctx context.Context, e Entry) error {
	return r.save(ctx, EntryKey, e)
}

// InvalidateEntry removes the cached schedule.
func (r *Repository) InvalidateEntry(ctx context.Context) error {
	if err := r.store.Delete(ctx, EntryKey); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", EntryKey, err)
	}
	return nil
}

// LoadLocation returns the selected location, or nil if none is stored.
func (r *Repository) LoadLocation(ctx context.Context) (*Location, error) {
	var loc Location
	ok, err := r.load(ctx, LocationKey, &loc)
	if !ok {
		return nil, err
	}
	return &loc, nil
}

// SaveLocation replaces the selected location.
func (r *Repository) SaveLocation(ctx context.Context, loc Location) error {
	return r.save(ctx, LocationKey, loc)
}

func (r *Repository) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
