package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/vakit/internal/api"
	"github.com/smokyabdulrahman/vakit/internal/cache"
	"github.com/smokyabdulrahman/vakit/internal/geo"
	"github.com/smokyabdulrahman/vakit/internal/prayer"
	"github.com/smokyabdulrahman/vakit/internal/store"
)

var (
	testNow      = time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC)
	testSettings = Settings{Method: 13, Adjustment: 1}
	istanbul     = cache.Location{Latitude: 41.0082, Longitude: 28.9784, City: "İstanbul"}
	ankara       = cache.Location{Latitude: 39.9334, Longitude: 32.8597, City: "Ankara"}
)

func timings(fajr, sunrise, dhuhr, asr, maghrib, isha string) api.Timings {
	return api.Timings{Fajr: fajr, Sunrise: sunrise, Dhuhr: dhuhr, Asr: asr, Maghrib: maghrib, Isha: isha}
}

func response(t api.Timings, hijriMonth int) *api.Response {
	return &api.Response{
		Code:   200,
		Status: "OK",
		Data: api.Data{
			Timings: t,
			Date: api.DateInfo{
				Hijri: api.HijriDate{
					Day:   "2",
					Month: api.HijriMonth{Number: hijriMonth, En: "Ramadan"},
					Year:  "1448",
				},
			},
			Meta: api.Meta{Timezone: "UTC"},
		},
	}
}

func freshTimings() api.Timings {
	return timings("05:30", "07:00", "12:30", "15:45", "18:20", "19:45")
}

func staleTimings() api.Timings {
	return timings("05:10", "06:40", "12:10", "15:20", "18:00", "19:20")
}

func mustSchedule(t *testing.T, tm api.Timings) prayer.Schedule {
	t.Helper()
	s, err := prayer.ParseSchedule(tm)
	require.NoError(t, err)
	return s
}

func entryFor(t *testing.T, loc cache.Location, tm api.Timings, fetchedAt time.Time) cache.Entry {
	return cache.Entry{
		Schedule:   mustSchedule(t, tm),
		Timezone:   "UTC",
		FetchedAt:  fetchedAt,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Method:     testSettings.Method,
		Adjustment: testSettings.Adjustment,
	}
}

// fakeProvider returns a canned response and records every request.
type fakeProvider struct {
	mu   sync.Mutex
	resp *api.Response
	err  error
	reqs []api.Request
}

func (f *fakeProvider) FetchTimings(_ context.Context, req api.Request) (*api.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeProvider) last() api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// fakeLocator grants or denies and returns a fixed position.
type fakeLocator struct {
	granted    bool
	permErr    error
	pos        geo.Position
	posErr     error
	permCalls  int
	accuracies []geo.Accuracy
}

func (f *fakeLocator) RequestPermission(context.Context) (bool, error) {
	f.permCalls++
	return f.granted, f.permErr
}

func (f *fakeLocator) CurrentPosition(_ context.Context, a geo.Accuracy) (geo.Position, error) {
	f.accuracies = append(f.accuracies, a)
	if f.posErr != nil {
		return geo.Position{}, f.posErr
	}
	p := f.pos
	p.Accuracy = a
	return p, nil
}

type fakeGeocoder struct {
	label string
	err   error
	calls int
}

func (f *fakeGeocoder) Label(context.Context, float64, float64) (string, error) {
	f.calls++
	return f.label, f.err
}

// flakyRecords wraps a Repository and fails selected operations.
type flakyRecords struct {
	*cache.Repository
	loadEntryErr    error
	saveEntryErr    error
	saveLocationErr error
	invalidateErr   error
}

func (r *flakyRecords) LoadEntry(ctx context.Context) (*cache.Entry, error) {
	if r.loadEntryErr != nil {
		return nil, r.loadEntryErr
	}
	return r.Repository.LoadEntry(ctx)
}

func (r *flakyRecords) SaveEntry(ctx context.Context, e cache.Entry) error {
	if r.saveEntryErr != nil {
		return r.saveEntryErr
	}
	return r.Repository.SaveEntry(ctx, e)
}

func (r *flakyRecords) SaveLocation(ctx context.Context, loc cache.Location) error {
	if r.saveLocationErr != nil {
		return r.saveLocationErr
	}
	return r.Repository.SaveLocation(ctx, loc)
}

func (r *flakyRecords) InvalidateEntry(ctx context.Context) error {
	if r.invalidateErr != nil {
		return r.invalidateErr
	}
	return r.Repository.InvalidateEntry(ctx)
}

var errNetwork = errors.New("network unreachable")

type harness struct {
	repo     *cache.Repository
	records  Records
	provider *fakeProvider
	locator  *fakeLocator
	geocoder *fakeGeocoder
}

func newHarness() *harness {
	repo := cache.NewRepository(store.NewMemory())
	return &harness{
		repo:     repo,
		records:  repo,
		provider: &fakeProvider{resp: response(freshTimings(), 4)},
		locator: &fakeLocator{
			granted: true,
			pos:     geo.Position{Latitude: ankara.Latitude, Longitude: ankara.Longitude, At: testNow},
		},
		geocoder: &fakeGeocoder{label: "Çankaya/Ankara"},
	}
}

func (h *harness) seed(t *testing.T, entry *cache.Entry, loc *cache.Location) {
	t.Helper()
	ctx := context.Background()
	if entry != nil {
		require.NoError(t, h.repo.SaveEntry(ctx, *entry))
	}
	if loc != nil {
		require.NoError(t, h.repo.SaveLocation(ctx, *loc))
	}
}

func (h *harness) coordinator() *Coordinator {
	return New(Options{
		Provider: h.provider,
		Records:  h.records,
		Locator:  h.locator,
		Geocoder: h.geocoder,
		Settings: testSettings,
		Now:      func() time.Time { return testNow },
	})
}

func hasNotice(s State, kind Kind) bool {
	for _, n := range s.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}
