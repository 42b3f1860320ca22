package coordinator

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the coordinator reports.
type Kind int

const (
	KindPermissionDenied Kind = iota + 1
	KindLocationUnavailable
	KindFetchFailed
	KindReverseLookupFailed
	KindStorageReadFailed
	KindStorageWriteFailed
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrFetchFailed         = errors.New("prayer times fetch failed")
	ErrReverseLookupFailed = errors.New("reverse lookup failed")
	ErrStorageReadFailed   = errors.New("storage read failed")
	ErrStorageWriteFailed  = errors.New("storage write failed")
)

var kindSentinels = map[Kind]error{
	KindPermissionDenied:    ErrPermissionDenied,
	KindLocationUnavailable: ErrLocationUnavailable,
	KindFetchFailed:         ErrFetchFailed,
	KindReverseLookupFailed: ErrReverseLookupFailed,
	KindStorageReadFailed:   ErrStorageReadFailed,
	KindStorageWriteFailed:  ErrStorageWriteFailed,
}

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindLocationUnavailable:
		return "LocationUnavailable"
	case KindFetchFailed:
		return "FetchFailed"
	case KindReverseLookupFailed:
		return "ReverseLookupFailed"
	case KindStorageReadFailed:
		return "StorageReadFailed"
	case KindStorageWriteFailed:
		return "StorageWriteFailed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText lets kinds appear by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is a classified failure of one coordinator operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, kindSentinels[e.Kind])
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so errors.Is(err,
// ErrFetchFailed) works regardless of the underlying cause.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Notice is a transient, user-facing message about a recoverable failure.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func noticeFor(e *Error) Notice {
	var msg string
	switch e.Kind {
	case KindPermissionDenied:
		msg = "Location permission denied. Pick a location manually."
	case KindLocationUnavailable:
		msg = "Could not determine your location. Pick a location manually."
	case KindFetchFailed:
		msg = "Could not download prayer times."
	case KindReverseLookupFailed:
		msg = "Could not look up the place name; showing coordinates."
	case KindStorageReadFailed:
		msg = "Could not read saved data."
	case KindStorageWriteFailed:
		msg = "Could not save data; changes last until exit."
	}
	if e.Err != nil && !errors.Is(e.Err, kindSentinels[e.Kind]) {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return Notice{Kind: e.Kind, Message: msg}
}
