// Package coordinator decides which schedule and location to present. It
// loads persisted records, serves fresh cache, refetches stale cache, asks
// for the device location when nothing is known, and persists the results.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/vakit/internal/api"
	"github.com/smokyabdulrahman/vakit/internal/cache"
	"github.com/smokyabdulrahman/vakit/internal/geo"
	"github.com/smokyabdulrahman/vakit/internal/prayer"
)

// Provider downloads one day of prayer times.
type Provider interface {
	FetchTimings(ctx context.Context, req api.Request) (*api.Response, error)
}

// Records persists the cache entry and the selected location.
type Records interface {
	LoadEntry(ctx context.Context) (*cache.Entry, error)
	SaveEntry(ctx context.Context, e cache.Entry) error
	InvalidateEntry(ctx context.Context) error
	LoadLocation(ctx context.Context) (*cache.Location, error)
	SaveLocation(ctx context.Context, loc cache.Location) error
}

// Options wires a Coordinator to its collaborators.
type Options struct {
	Provider Provider
	Records  Records
	Locator  geo.Locator
	Geocoder geo.Geocoder // optional
	Settings Settings
	Logger   *zerolog.Logger // nil disables logging
	// Now defaults to time.Now.
	Now func() time.Time
}

// Coordinator runs the state transitions against real collaborators.
// Operations are serialized; State and Next may be called at any time.
type Coordinator struct {
	provider Provider
	records  Records
	locator  geo.Locator
	geocoder geo.Geocoder
	settings Settings
	log      zerolog.Logger
	now      func() time.Time

	opMu sync.Mutex

	mu    sync.RWMutex
	state State

	loaded   chan struct{}
	loadOnce sync.Once
}

// New creates a Coordinator in PhaseBootstrapping.
func New(opts Options) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Coordinator{
		provider: opts.Provider,
		records:  opts.Records,
		locator:  opts.Locator,
		geocoder: opts.Geocoder,
		settings: opts.Settings,
		log:      logger,
		now:      now,
		state:    State{Phase: PhaseBootstrapping},
		loaded:   make(chan struct{}),
	}
}

// State returns a snapshot of the held state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Loaded is closed once the first operation has finished.
func (c *Coordinator) Loaded() <-chan struct{} {
	return c.loaded
}

// Start reads both records concurrently and runs the startup state machine
// to completion. Failures end up as notices on the returned state.
func (c *Coordinator) Start(ctx context.Context) State {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	s, act := c.bootstrap(ctx)
	return c.finish(c.run(ctx, s, act, acquire))
}

// StartRefresh starts like Start and then downloads again when startup
// served the cache without trying the network. At most one download is
// attempted.
func (c *Coordinator) StartRefresh(ctx context.Context) State {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	s, act := c.bootstrap(ctx)
	if act == ActionNone {
		s, act = refetch(s)
	}
	return c.finish(c.run(ctx, s, act, acquire))
}

func (c *Coordinator) bootstrap(ctx context.Context) (State, Action) {
	var (
		entry            *cache.Entry
		loc              *cache.Location
		entryErr, locErr error
	)
	// Each read keeps its own error: a failed entry read must not cancel the
	// location read, and both failures become notices.
	var g errgroup.Group
	g.Go(func() error {
		entry, entryErr = c.records.LoadEntry(ctx)
		return nil
	})
	g.Go(func() error {
		loc, locErr = c.records.LoadLocation(ctx)
		return nil
	})
	_ = g.Wait()

	s, act := Bootstrap(entry, loc, c.now(), c.settings)
	if entryErr != nil {
		s = c.warn(s, newError(KindStorageReadFailed, "load "+cache.EntryKey, entryErr))
	}
	if locErr != nil {
		s = c.warn(s, newError(KindStorageReadFailed, "load "+cache.LocationKey, locErr))
	}
	c.logTransition("bootstrap", s, act)
	return s, act
}

// ChangeLocation replaces the selected location with the given coordinate,
// drops the cached schedule and fetches a new one. An empty label is looked
// up from the geocoder, falling back to the coordinate string.
func (c *Coordinator) ChangeLocation(ctx context.Context, lat, lon float64, label string) (State, error) {
	if !geo.ValidCoordinate(lat, lon) {
		return c.State(), fmt.Errorf("invalid coordinate %v, %v", lat, lon)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	s := c.begin()
	now := c.now()
	loc := cache.Location{Latitude: lat, Longitude: lon, City: label, Timestamp: &now}
	if loc.City == "" {
		s, loc.City = c.label(ctx, s, lat, lon)
	}

	s, act := c.changeLocation(ctx, s, loc)
	return c.finish(c.run(ctx, s, act, relocate)), nil
}

// UseCurrentLocation reads the device position at the highest accuracy and
// treats it like a picked location.
func (c *Coordinator) UseCurrentLocation(ctx context.Context) State {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	return c.finish(c.run(ctx, c.begin(), ActionRequestPermission, relocate))
}

// Refresh refetches for the held location, keeping the held entry as the
// fallback. Without a location it behaves like a cold start.
func (c *Coordinator) Refresh(ctx context.Context) State {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	s, act := refetch(c.begin())
	return c.finish(c.run(ctx, s, act, acquire))
}

// refetch is the first action of a forced download.
func refetch(s State) (State, Action) {
	if s.Location == nil {
		s.Phase = PhaseAwaitingLocationPermission
		return s, ActionRequestPermission
	}
	return s, ActionFetch
}

// Next derives the next-prayer view from the held schedule. The instant is
// moved into the schedule's timezone when it is known.
func (c *Coordinator) Next(now time.Time) (prayer.NextView, bool) {
	s := c.State()
	if s.Entry == nil {
		return prayer.NextView{}, false
	}
	return prayer.ComputeNext(s.Entry.Schedule, InZone(now, s.Entry.Timezone), s.Entry.Special), true
}

// InZone converts t to the named IANA zone, or returns t unchanged.
func InZone(t time.Time, zone string) time.Time {
	if zone == "" {
		return t
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return t
	}
	return t.In(loc)
}

// begin returns the held state with the previous operation's notices cleared.
func (c *Coordinator) begin() State {
	s := c.State()
	s.Notices = nil
	return s
}

func (c *Coordinator) finish(s State) State {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()

	c.loadOnce.Do(func() { close(c.loaded) })
	return s
}

// locateMode controls how a position found by ActionLocate is installed.
type locateMode int

const (
	// acquire fills in a missing location and keeps the held entry.
	acquire locateMode = iota
	// relocate replaces the location on request and drops the held entry.
	relocate
)

func (m locateMode) accuracy() geo.Accuracy {
	if m == relocate {
		return geo.AccuracyHighest
	}
	return geo.AccuracyHigh
}

// run performs actions until the state machine settles.
func (c *Coordinator) run(ctx context.Context, s State, act Action, mode locateMode) State {
	for {
		switch act {
		case ActionNone, ActionPickLocation:
			return s

		case ActionRequestPermission:
			granted, err := c.locator.RequestPermission(ctx)
			switch {
			case err != nil:
				s, act = LocationFailed(s, err)
				c.logFailure(KindLocationUnavailable, err)
			case !granted:
				s, act = PermissionResolved(s, false)
				c.logFailure(KindPermissionDenied, ErrPermissionDenied)
			default:
				s, act = PermissionResolved(s, true)
			}
			c.logTransition("permission", s, act)

		case ActionLocate:
			pos, err := c.locator.CurrentPosition(ctx, mode.accuracy())
			if err != nil {
				s, act = LocationFailed(s, err)
				c.logFailure(KindLocationUnavailable, err)
				c.logTransition("locate", s, act)
				continue
			}
			loc := cache.Location{Latitude: pos.Latitude, Longitude: pos.Longitude, Timestamp: &pos.At}
			s, loc.City = c.label(ctx, s, pos.Latitude, pos.Longitude)
			if loc.City == geo.CoordinateLabel(pos.Latitude, pos.Longitude) && pos.City != "" {
				loc.City = pos.City
			}
			c.log.Info().Float64("lat", pos.Latitude).Float64("lon", pos.Longitude).
				Str("accuracy", pos.Accuracy.String()).Str("label", loc.City).Msg("position acquired")
			if mode == relocate {
				s, act = c.changeLocation(ctx, s, loc)
			} else {
				s, act = c.acquireLocation(ctx, s, loc)
			}

		case ActionFetch:
			entry, err := c.fetch(ctx, *s.Location)
			if err != nil {
				s = FetchFailed(s, err)
				c.log.Error().Err(err).Bool("stale_fallback", s.Entry != nil).Msg("fetch failed")
			} else {
				s = FetchSucceeded(s, entry)
				if err := c.records.SaveEntry(ctx, entry); err != nil {
					s = c.warn(s, newError(KindStorageWriteFailed, "save "+cache.EntryKey, err))
				}
			}
			act = ActionNone
			c.logTransition("fetch", s, act)

		default:
			return s
		}
	}
}

// changeLocation persists loc, invalidates the stored entry and applies
// LocationChanged. Write failures are notices; the in-memory state moves on.
func (c *Coordinator) changeLocation(ctx context.Context, s State, loc cache.Location) (State, Action) {
	if err := c.records.SaveLocation(ctx, loc); err != nil {
		s = c.warn(s, newError(KindStorageWriteFailed, "save "+cache.LocationKey, err))
	}
	if err := c.records.InvalidateEntry(ctx); err != nil {
		s = c.warn(s, newError(KindStorageWriteFailed, "invalidate "+cache.EntryKey, err))
	}
	s, act := LocationChanged(s, loc)
	c.logTransition("location changed", s, act)
	return s, act
}

// acquireLocation persists loc and applies LocationAcquired. The stored
// entry is left in place so a failed fetch can still fall back to it.
func (c *Coordinator) acquireLocation(ctx context.Context, s State, loc cache.Location) (State, Action) {
	if err := c.records.SaveLocation(ctx, loc); err != nil {
		s = c.warn(s, newError(KindStorageWriteFailed, "save "+cache.LocationKey, err))
	}
	s, act := LocationAcquired(s, loc)
	c.logTransition("location acquired", s, act)
	return s, act
}

// label resolves a place name, degrading to the coordinate string.
func (c *Coordinator) label(ctx context.Context, s State, lat, lon float64) (State, string) {
	fallback := geo.CoordinateLabel(lat, lon)
	if c.geocoder == nil {
		return s, fallback
	}
	name, err := c.geocoder.Label(ctx, lat, lon)
	if err != nil {
		return c.warn(s, newError(KindReverseLookupFailed, "reverse lookup", err)), fallback
	}
	if name == "" {
		return s, fallback
	}
	return s, name
}

func (c *Coordinator) fetch(ctx context.Context, loc cache.Location) (cache.Entry, error) {
	now := c.now()
	resp, err := c.provider.FetchTimings(ctx, api.Request{
		Date:       now,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Method:     c.settings.Method,
		Adjustment: c.settings.Adjustment,
	})
	if err != nil {
		return cache.Entry{}, err
	}

	schedule, err := prayer.ParseSchedule(resp.Data.Timings)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("malformed schedule: %w", err)
	}

	return cache.Entry{
		Schedule:   schedule,
		Special:    resp.Data.Date.Hijri.IsRamadan(),
		Hijri:      resp.Data.Date.Hijri.Format(),
		Timezone:   resp.Data.Meta.Timezone,
		FetchedAt:  now,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Method:     c.settings.Method,
		Adjustment: c.settings.Adjustment,
	}, nil
}

func (c *Coordinator) warn(s State, e *Error) State {
	ev := c.log.Warn()
	if e.Kind == KindStorageWriteFailed {
		ev = c.log.Error()
	}
	ev.Err(e.Err).Str("kind", e.Kind.String()).Str("op", e.Op).Msg("coordinator error")
	return Warn(s, e)
}

func (c *Coordinator) logFailure(kind Kind, err error) {
	if errors.Is(err, context.Canceled) {
		c.log.Debug().Err(err).Str("kind", kind.String()).Msg("operation cancelled")
		return
	}
	c.log.Warn().Err(err).Str("kind", kind.String()).Msg("coordinator error")
}

func (c *Coordinator) logTransition(event string, s State, act Action) {
	c.log.Debug().
		Str("event", event).
		Str("phase", s.Phase.String()).
		Str("next", act.String()).
		Bool("has_schedule", s.HasSchedule()).
		Msg("transition")
}
