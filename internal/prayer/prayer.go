// Package prayer holds the daily schedule and the next-prayer computation.
package prayer

import (
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/vakit/internal/api"
)

// Schedule keys in fixed daily order.
const (
	Fajr    = "Fajr"
	Sunrise = "Sunrise"
	Dhuhr   = "Dhuhr"
	Asr     = "Asr"
	Maghrib = "Maghrib"
	Isha    = "Isha"
)

// Order lists the six schedule keys in chronological order.
var Order = []string{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// Clock is a time of day with minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "15:02" or "15:02 (+03)".
func ParseClock(raw string) (Clock, error) {
	// Strip timezone suffix like " (+03)" that the API sometimes appends.
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return Clock{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return Clock{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return Clock{}, fmt.Errorf("time out of range: %q", raw)
	}

	return Clock{Hour: hour, Minute: min}, nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant of c on the calendar date of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) minutes() int {
	return c.Hour*60 + c.Minute
}

// MarshalText stores the clock as HH:MM.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText reads an HH:MM clock.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Schedule is one calendar day of prayer times.
type Schedule struct {
	Fajr    Clock `json:"Fajr"`
	Sunrise Clock `json:"Sunrise"`
	Dhuhr   Clock `json:"Dhuhr"`
	Asr     Clock `json:"Asr"`
	Maghrib Clock `json:"Maghrib"`
	Isha    Clock `json:"Isha"`
}

// Clock returns the time of the given schedule key.
func (s Schedule) Clock(key string) (Clock, bool) {
	switch key {
	case Fajr:
		return s.Fajr, true
	case Sunrise:
		return s.Sunrise, true
	case Dhuhr:
		return s.Dhuhr, true
	case Asr:
		return s.Asr, true
	case Maghrib:
		return s.Maghrib, true
	case Isha:
		return s.Isha, true
	}
	return Clock{}, false
}

// Validate checks that the six times are non-decreasing in schedule order.
func (s Schedule) Validate() error {
	prev := -1
	for _, key := range Order {
		c, _ := s.Clock(key)
		if c.minutes() < prev {
			return fmt.Errorf("schedule out of order at %s (%s)", key, c)
		}
		prev = c.minutes()
	}
	return nil
}

// ParseSchedule converts API timings into a validated Schedule.
func ParseSchedule(t api.Timings) (Schedule, error) {
	raw := map[string]string{
		Fajr:    t.Fajr,
		Sunrise: t.Sunrise,
		Dhuhr:   t.Dhuhr,
		Asr:     t.Asr,
		Maghrib: t.Maghrib,
		Isha:    t.Isha,
	}

	parsed := make(map[string]Clock, len(raw))
	for _, key := range Order {
		c, err := ParseClock(raw[key])
		if err != nil {
			return Schedule{}, fmt.Errorf("failed to parse time for %s: %w", key, err)
		}
		parsed[key] = c
	}

	s := Schedule{
		Fajr:    parsed[Fajr],
		Sunrise: parsed[Sunrise],
		Dhuhr:   parsed[Dhuhr],
		Asr:     parsed[Asr],
		Maghrib: parsed[Maghrib],
		Isha:    parsed[Isha],
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// Prayer is a schedule entry anchored to a concrete instant.
type Prayer struct {
	Name string // schedule key
	Time time.Time
}

// On anchors every entry of the schedule to the calendar date of day.
func (s Schedule) On(day time.Time) []Prayer {
	prayers := make([]Prayer, 0, len(Order))
	for _, key := range Order {
		c, _ := s.Clock(key)
		prayers = append(prayers, Prayer{Name: key, Time: c.On(day)})
	}
	return prayers
}

// NextPrayer finds the first prayer strictly after now.
// If all prayers have passed, it returns nil.
func NextPrayer(prayers []Prayer, now time.Time) *Prayer {
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// CurrentPrayer returns the latest prayer whose time is at or before now.
// Before the first prayer of the day it returns nil.
func CurrentPrayer(prayers []Prayer, now time.Time) *Prayer {
	var current *Prayer
	for i := range prayers {
		if prayers[i].Time.After(now) {
			break
		}
		current = &prayers[i]
	}
	return current
}

// NextView is the derived "next prayer" view state.
type NextView struct {
	Key       string // schedule key, e.g. "Maghrib"
	Name      string // display name, e.g. "Akşam" or "İftar"
	Time      time.Time
	Remaining time.Duration
	Hours     int
	Minutes   int
	Text      string // remaining time, e.g. "2s 20d" or "İftara 2s 20d"
}

// ComputeNext selects the next prayer relative to now. When every entry of
// today has passed, tomorrow's Fajr is returned (same time of day, next date).
// The schedule must be well-formed; see ParseSchedule.
func ComputeNext(s Schedule, now time.Time, special bool) NextView {
	prayers := s.On(now)

	next := NextPrayer(prayers, now)
	if next == nil {
		first := prayers[0]
		first.Time = s.Fajr.On(now.AddDate(0, 0, 1))
		next = &first
	}

	d := next.Time.Sub(now)
	hours, minutes := SplitRemaining(d)
	name := DisplayName(next.Name, special)

	return NextView{
		Key:       next.Name,
		Name:      name,
		Time:      next.Time,
		Remaining: d,
		Hours:     hours,
		Minutes:   minutes,
		Text:      RemainingText(next.Name, name, hours, minutes, special),
	}
}

// SplitRemaining truncates d to whole hours and the leftover whole minutes.
// Negative durations count as zero.
func SplitRemaining(d time.Duration) (hours, minutes int) {
	if d < 0 {
		return 0, 0
	}
	return int(d / time.Hour), int((d % time.Hour) / time.Minute)
}
