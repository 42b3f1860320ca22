package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/vakit/internal/prayer"
	"github.com/smokyabdulrahman/vakit/internal/store"
)

func sampleEntry(fetchedAt time.Time) Entry {
	return Entry{
		Schedule: prayer.Schedule{
			Fajr:    prayer.Clock{Hour: 5, Minute: 30},
			Sunrise: prayer.Clock{Hour: 7, Minute: 0},
			Dhuhr:   prayer.Clock{Hour: 12, Minute: 30},
			Asr:     prayer.Clock{Hour: 15, Minute: 45},
			Maghrib: prayer.Clock{Hour: 18, Minute: 20},
			Isha:    prayer.Clock{Hour: 19, Minute: 45},
		},
		Special:    true,
		Hijri:      "2 Ramadan 1448 AH",
		Timezone:   "Europe/Istanbul",
		FetchedAt:  fetchedAt,
		Latitude:   41.0082,
		Longitude:  28.9784,
		Method:     13,
		Adjustment: 1,
	}
}

// brokenStore fails every call.
type brokenStore struct{ err error }

func (b brokenStore) Get(context.Context, string) ([]byte, error) { return nil, b.err }
func (b brokenStore) Set(context.Context, string, []byte) error { return b.err }
func (b brokenStore) Delete(context.Context, string) error { return b.err }
func (b brokenStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Freshness
// ---------------------------------------------------------------------------

func TestEntry_Fresh(t *testing.T) {
	fetched := time.Date(2026, 10, 14, 6, 0, 0, 0, time.UTC)
	e := sampleEntry(fetched)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just fetched", fetched, true},
		{"five hours later", fetched.Add(5 * time.Hour), true},
		{"one nanosecond before threshold", fetched.Add(FreshnessThreshold - time.Nanosecond), true},
		{"exactly at threshold", fetched.Add(FreshnessThreshold), false},
		{"after threshold", fetched.Add(7 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Fresh(tt.now))
		})
	}
}

func TestEntry_Matches(t *testing.T) {
	e := sampleEntry(time.Now())
	assert.True(t, e.Matches(13, 1))
	assert.False(t, e.Matches(2, 1))
	assert.False(t, e.Matches(13, 0))
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

func TestRepository_EntryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())

	got, err := repo.LoadEntry(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store has no entry")

	fetched := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	require.NoError(t, repo.SaveEntry(ctx, sampleEntry(fetched)))

	got, err = repo.LoadEntry(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleEntry(fetched).Schedule, got.Schedule)
	assert.True(t, got.FetchedAt.Equal(fetched))
	assert.True(t, got.Special)

	require.NoError(t, repo.InvalidateEntry(ctx))
	got, err = repo.LoadEntry(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_LocationReplacedWhole(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory())

	ts := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveLocation(ctx, Location{Latitude: 41, Longitude: 29, City: "İstanbul", Timestamp: &ts}))
	require.NoError(t, repo.SaveLocation(ctx, Location{Latitude: 39.9, Longitude: 32.8}))

	got, err := repo.LoadLocation(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 39.9, got.Latitude)
	assert.Equal(t, 32.8, got.Longitude)
	assert.Empty(t, got.City, "city from the previous record must not survive")
	assert.Nil(t, got.Timestamp)
}

func TestRepository_LocationJSONShape(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	repo := NewRepository(mem)

	require.NoError(t, repo.SaveLocation(ctx, Location{Latitude: 1.5, Longitude: 2.5, City: "X"}))
	raw, err := mem.Get(ctx, LocationKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"latitude":1.5,"longitude":2.5,"city":"X"}`, string(raw))
}

func TestRepository_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, EntryKey, []byte("{not json")))

	_, err := NewRepository(mem).LoadEntry(ctx)
	assert.ErrorContains(t, err, "decode")
}

func TestRepository_StoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	repo := NewRepository(brokenStore{err: boom})

	_, err := repo.LoadLocation(ctx)
	assert.ErrorIs(t, err, boom)

	err = repo.SaveEntry(ctx, sampleEntry(time.Now()))
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, repo.InvalidateEntry(ctx), boom)
}
