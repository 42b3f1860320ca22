package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/vakit/internal/cache"
	"github.com/smokyabdulrahman/vakit/internal/coordinator"
	"github.com/smokyabdulrahman/vakit/internal/display"
	"github.com/smokyabdulrahman/vakit/internal/geo"
	"github.com/smokyabdulrahman/vakit/internal/prayer"
)

func runToday(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil, true)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.render(cmd, a.coord.Start(cmd.Context()))
}

// render prints the home screen for s: notices on stderr, the schedule on stdout.
func (a *app) render(cmd *cobra.Command, s coordinator.State) error {
	printNotices(cmd.ErrOrStderr(), s.Notices)
	if !s.HasSchedule() {
		return noSchedule(s)
	}

	now := coordinator.InZone(nowFunc(), s.Entry.Timezone)
	next, _ := a.coord.Next(now)
	goTimeFmt := goTimeFormat(a.cfg.TimeFormat)

	if FlagJSON {
		return printTodayJSON(cmd.OutOrStdout(), s, next, now, goTimeFmt)
	}
	printTodayRich(cmd.OutOrStdout(), s, next, now, goTimeFmt)
	return nil
}

// noSchedule explains why there is nothing to show.
func noSchedule(s coordinator.State) error {
	switch {
	case s.NeedsPicker:
		return errors.New("no location selected; run `vakit location set <latitude> <longitude>`")
	case s.Phase == coordinator.PhaseUnavailable:
		return errors.New("prayer times unavailable; check your connection and run `vakit refresh`")
	}
	return fmt.Errorf("no prayer schedule available (%s)", s.Phase)
}

// locationLabel returns the place name, or the coordinates when it has none.
func locationLabel(loc *cache.Location) string {
	if loc == nil {
		return ""
	}
	if loc.City != "" {
		return loc.City
	}
	return geo.CoordinateLabel(loc.Latitude, loc.Longitude)
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(w io.Writer, s coordinator.State, next prayer.NextView, now time.Time, goTimeFmt string) {
	e := s.Entry

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Namaz Vakitleri"))
	fmt.Fprintln(w)

	if label := locationLabel(s.Location); label != "" {
		fmt.Fprintf(w, "  %s\n", label)
	}
	if e.Timezone != "" {
		fmt.Fprintf(w, "  %s\n", display.Gray(e.Timezone))
	}
	fmt.Fprintf(w, "  %s\n", now.Format("02 Jan 2006"))
	if e.Hijri != "" {
		fmt.Fprintf(w, "  %s\n", e.Hijri)
	}
	if !e.Fresh(now) {
		fmt.Fprintf(w, "  %s\n", display.Dim("Offline: times fetched "+e.FetchedAt.In(now.Location()).Format("02 Jan 15:04")))
	}
	fmt.Fprintln(w)

	table := display.NewTable([]string{"Prayer", "Time"})
	for i, key := range prayer.Order {
		c, _ := e.Schedule.Clock(key)
		table.AddRow([]string{prayer.DisplayName(key, e.Special), c.On(now).Format(goTimeFmt)})
		if key == next.Key {
			table.SetHighlightRow(i)
		}
	}
	fmt.Fprint(w, table.Render())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s %s  %s\n", display.Accent(next.Name), next.Time.Format(goTimeFmt), display.Countdown(next.Text))
	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Phase     string               `json:"phase"`
	Location  *todayJSONLocation   `json:"location,omitempty"`
	Date      todayJSONDate        `json:"date"`
	Special   bool                 `json:"special"`
	Timings   map[string]string    `json:"timings"`
	Current   string               `json:"current"`
	Next      todayJSONNext        `json:"next"`
	FetchedAt time.Time            `json:"fetched_at"`
	Stale     bool                 `json:"stale"`
	Notices   []coordinator.Notice `json:"notices,omitempty"`
}

type todayJSONLocation struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri,omitempty"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, s coordinator.State, next prayer.NextView, now time.Time, goTimeFmt string) error {
	e := s.Entry

	timings := make(map[string]string, len(prayer.Order))
	for _, key := range prayer.Order {
		c, _ := e.Schedule.Clock(key)
		timings[strings.ToLower(key)] = c.On(now).Format(goTimeFmt)
	}

	out := todayJSON{
		Phase: s.Phase.String(),
		Date: todayJSONDate{
			Gregorian: now.Format("2006-01-02"),
			Hijri:     e.Hijri,
		},
		Special: e.Special,
		Timings: timings,
		Next: todayJSONNext{
			Prayer:    strings.ToLower(next.Key),
			Name:      next.Name,
			Time:      next.Time.Format(goTimeFmt),
			Remaining: next.Text,
		},
		FetchedAt: e.FetchedAt,
		Stale:     !e.Fresh(now),
		Notices:   s.Notices,
	}

	if s.Location != nil {
		out.Location = &todayJSONLocation{
			Label:     locationLabel(s.Location),
			Latitude:  s.Location.Latitude,
			Longitude: s.Location.Longitude,
			Timezone:  e.Timezone,
		}
	}

	if current := prayer.CurrentPrayer(e.Schedule.On(now), now); current != nil {
		out.Current = strings.ToLower(current.Name)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
