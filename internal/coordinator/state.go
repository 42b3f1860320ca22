package coordinator

import (
	"math"
	"time"

	"github.com/smokyabdulrahman/vakit/internal/cache"
)

// Phase is the coordinator's position in its startup state machine.
type Phase int

const (
	PhaseBootstrapping Phase = iota
	PhaseHasCache
	PhaseNoCache
	PhaseAwaitingLocationPermission
	PhaseLocationGranted
	PhaseLocationDenied
	PhaseReady
	// PhaseUnavailable means a fetch failed and there is no schedule to fall back to.
	PhaseUnavailable
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrapping:
		return "Bootstrapping"
	case PhaseHasCache:
		return "HasCache"
	case PhaseNoCache:
		return "NoCache"
	case PhaseAwaitingLocationPermission:
		return "AwaitingLocationPermission"
	case PhaseLocationGranted:
		return "LocationGranted"
	case PhaseLocationDenied:
		return "LocationDenied"
	case PhaseReady:
		return "Ready"
	case PhaseUnavailable:
		return "Unavailable"
	}
	return "Unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Action is the side effect the coordinator must perform next.
type Action int

const (
	ActionNone Action = iota
	ActionFetch
	ActionRequestPermission
	ActionLocate
	// ActionPickLocation hands control to the manual location picker.
	ActionPickLocation
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionFetch:
		return "fetch"
	case ActionRequestPermission:
		return "request-permission"
	case ActionLocate:
		return "locate"
	case ActionPickLocation:
		return "pick-location"
	}
	return "unknown"
}

// State is everything the coordinator knows. Transition functions take a
// State by value and return the next one; they never perform I/O.
type State struct {
	Phase    Phase           `json:"phase"`
	Entry    *cache.Entry    `json:"entry,omitempty"`
	Location *cache.Location `json:"location,omitempty"`
	// NeedsPicker is set when the location cannot be resolved without the user.
	NeedsPicker bool     `json:"needs_picker"`
	Notices     []Notice `json:"notices,omitempty"`
}

// HasSchedule reports whether a schedule (fresh or stale) is held.
func (s State) HasSchedule() bool {
	return s.Entry != nil
}

// Settings are the calculation parameters a cached entry must match.
type Settings struct {
	Method     int
	Adjustment int
}

// Bootstrap decides the first action from the two persisted records.
// A fresh entry matching the settings and the stored location is served
// without a network call. An entry for a different location is discarded.
func Bootstrap(entry *cache.Entry, loc *cache.Location, now time.Time, settings Settings) (State, Action) {
	s := State{Phase: PhaseBootstrapping, Location: loc}

	if entry != nil && loc != nil && !sameCoordinate(entry, loc) {
		entry = nil
	}
	s.Entry = entry

	if entry != nil {
		s.Phase = PhaseHasCache
		if entry.Fresh(now) && entry.Matches(settings.Method, settings.Adjustment) {
			s.Phase = PhaseReady
			return s, ActionNone
		}
	} else {
		s.Phase = PhaseNoCache
	}

	if loc != nil {
		return s, ActionFetch
	}
	s.Phase = PhaseAwaitingLocationPermission
	return s, ActionRequestPermission
}

// PermissionResolved moves on after the permission prompt.
func PermissionResolved(s State, granted bool) (State, Action) {
	if granted {
		s.Phase = PhaseLocationGranted
		return s, ActionLocate
	}
	return decline(s, newError(KindPermissionDenied, "request permission", ErrPermissionDenied))
}

// LocationFailed handles a failed device position read.
func LocationFailed(s State, err error) (State, Action) {
	return decline(s, newError(KindLocationUnavailable, "current position", err))
}

// LocationChanged installs a new location. The held entry belongs to the old
// location, so it is dropped and a fetch follows.
func LocationChanged(s State, loc cache.Location) (State, Action) {
	s.Location = &loc
	s.Entry = nil
	s.NeedsPicker = false
	s.Phase = PhaseNoCache
	return s, ActionFetch
}

// LocationAcquired installs the position found while no location was stored.
// The held entry stays as the fallback for the fetch that follows.
func LocationAcquired(s State, loc cache.Location) (State, Action) {
	s.Location = &loc
	s.NeedsPicker = false
	s.Phase = PhaseNoCache
	if s.Entry != nil {
		s.Phase = PhaseHasCache
	}
	return s, ActionFetch
}

// FetchSucceeded installs a freshly downloaded entry.
func FetchSucceeded(s State, e cache.Entry) State {
	s.Entry = &e
	s.Phase = PhaseReady
	s.NeedsPicker = false
	return s
}

// FetchFailed keeps whatever entry is held, stale or not, as the schedule.
// Without one the coordinator is unavailable.
func FetchFailed(s State, err error) State {
	s = Warn(s, newError(KindFetchFailed, "fetch timings", err))
	if s.Entry != nil {
		s.Phase = PhaseReady
	} else {
		s.Phase = PhaseUnavailable
	}
	return s
}

// Warn records a notice without changing anything else.
func Warn(s State, e *Error) State {
	s.Notices = append(append([]Notice(nil), s.Notices...), noticeFor(e))
	return s
}

func decline(s State, e *Error) (State, Action) {
	s = Warn(s, e)
	s.NeedsPicker = true
	if s.Entry != nil {
		s.Phase = PhaseReady
	} else {
		s.Phase = PhaseLocationDenied
	}
	return s, ActionPickLocation
}

func sameCoordinate(e *cache.Entry, loc *cache.Location) bool {
	const epsilon = 1e-6
	return math.Abs(e.Latitude-loc.Latitude) < epsilon && math.Abs(e.Longitude-loc.Longitude) < epsilon
}
