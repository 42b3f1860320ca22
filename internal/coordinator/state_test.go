package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/smokyabdulrahman/vakit/internal/cache"
)

func TestBootstrap(t *testing.T) {
	fresh := entryFor(t, istanbul, freshTimings(), testNow.Add(-time.Hour))
	stale := entryFor(t, istanbul, staleTimings(), testNow.Add(-7*time.Hour))
	atThreshold := entryFor(t, istanbul, staleTimings(), testNow.Add(-cache.FreshnessThreshold))
	otherMethod := fresh
	otherMethod.Method = 2
	elsewhere := entryFor(t, ankara, freshTimings(), testNow.Add(-time.Hour))

	tests := []struct {
		name      string
		entry     *cache.Entry
		loc       *cache.Location
		wantPhase Phase
		wantAct   Action
		wantEntry bool
	}{
		{"fresh entry is served", &fresh, &istanbul, PhaseReady, ActionNone, true},
		{"fresh entry without location is served", &fresh, nil, PhaseReady, ActionNone, true},
		{"stale entry with location refetches", &stale, &istanbul, PhaseHasCache, ActionFetch, true},
		{"entry at threshold is stale", &atThreshold, &istanbul, PhaseHasCache, ActionFetch, true},
		{"different method refetches", &otherMethod, &istanbul, PhaseHasCache, ActionFetch, true},
		{"entry for another location is dropped", &elsewhere, &istanbul, PhaseNoCache, ActionFetch, false},
		{"no entry with location fetches", nil, &istanbul, PhaseNoCache, ActionFetch, false},
		{"nothing stored asks for permission", nil, nil, PhaseAwaitingLocationPermission, ActionRequestPermission, false},
		{"stale entry without location asks for permission", &stale, nil, PhaseAwaitingLocationPermission, ActionRequestPermission, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, act := Bootstrap(tt.entry, tt.loc, testNow, testSettings)
			assert.Equal(t, tt.wantPhase, s.Phase)
			assert.Equal(t, tt.wantAct, act)
			assert.Equal(t, tt.wantEntry, s.HasSchedule())
		})
	}
}

func TestPermissionResolved(t *testing.T) {
	s, act := PermissionResolved(State{Phase: PhaseAwaitingLocationPermission}, true)
	assert.Equal(t, PhaseLocationGranted, s.Phase)
	assert.Equal(t, ActionLocate, act)
	assert.False(t, s.NeedsPicker)

	s, act = PermissionResolved(State{Phase: PhaseAwaitingLocationPermission}, false)
	assert.Equal(t, PhaseLocationDenied, s.Phase)
	assert.Equal(t, ActionPickLocation, act)
	assert.True(t, s.NeedsPicker)
	assert.True(t, hasNotice(s, KindPermissionDenied))
}

func TestPermissionResolved_DeniedKeepsSchedule(t *testing.T) {
	e := entryFor(t, istanbul, freshTimings(), testNow)
	held := State{Phase: PhaseReady, Entry: &e, Location: &istanbul}

	s, act := PermissionResolved(held, false)
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, ActionPickLocation, act)
	assert.Same(t, held.Entry, s.Entry)
	assert.Equal(t, held.Location, s.Location)
}

func TestLocationFailed(t *testing.T) {
	s, act := LocationFailed(State{Phase: PhaseLocationGranted}, errNetwork)
	assert.Equal(t, PhaseLocationDenied, s.Phase)
	assert.Equal(t, ActionPickLocation, act)
	assert.True(t, hasNotice(s, KindLocationUnavailable))
}

func TestLocationChanged_DropsEntry(t *testing.T) {
	e := entryFor(t, istanbul, freshTimings(), testNow)
	s, act := LocationChanged(State{Phase: PhaseReady, Entry: &e, Location: &istanbul, NeedsPicker: true}, ankara)

	assert.Equal(t, ActionFetch, act)
	assert.Nil(t, s.Entry)
	assert.Equal(t, ankara, *s.Location)
	assert.False(t, s.NeedsPicker)
}

func TestLocationAcquired_KeepsEntry(t *testing.T) {
	stale := entryFor(t, istanbul, staleTimings(), testNow.Add(-7*time.Hour))
	s, act := LocationAcquired(State{Phase: PhaseLocationGranted, Entry: &stale, NeedsPicker: true}, ankara)

	assert.Equal(t, ActionFetch, act)
	assert.Equal(t, PhaseHasCache, s.Phase)
	assert.Same(t, &stale, s.Entry)
	assert.Equal(t, ankara, *s.Location)
	assert.False(t, s.NeedsPicker)

	s, _ = LocationAcquired(State{Phase: PhaseLocationGranted}, ankara)
	assert.Equal(t, PhaseNoCache, s.Phase)
	assert.Nil(t, s.Entry)
}

func TestFetchSucceeded(t *testing.T) {
	e := entryFor(t, istanbul, freshTimings(), testNow)
	s := FetchSucceeded(State{Phase: PhaseNoCache, NeedsPicker: true}, e)
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, e, *s.Entry)
	assert.False(t, s.NeedsPicker)
}

func TestFetchFailed(t *testing.T) {
	stale := entryFor(t, istanbul, staleTimings(), testNow.Add(-8*time.Hour))

	s := FetchFailed(State{Phase: PhaseHasCache, Entry: &stale, Location: &istanbul}, errNetwork)
	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, stale.Schedule, s.Entry.Schedule)
	assert.True(t, hasNotice(s, KindFetchFailed))

	s = FetchFailed(State{Phase: PhaseNoCache, Location: &istanbul}, errNetwork)
	assert.Equal(t, PhaseUnavailable, s.Phase)
	assert.Nil(t, s.Entry)
}

func TestWarn_DoesNotAlias(t *testing.T) {
	base := State{Notices: make([]Notice, 0, 4)}
	a := Warn(base, newError(KindStorageReadFailed, "load", errNetwork))
	b := Warn(base, newError(KindStorageWriteFailed, "save", errNetwork))

	assert.Len(t, a.Notices, 1)
	assert.Len(t, b.Notices, 1)
	assert.Equal(t, KindStorageReadFailed, a.Notices[0].Kind)
	assert.Equal(t, KindStorageWriteFailed, b.Notices[0].Kind)
}
