package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/vakit/internal/coordinator"
	"github.com/smokyabdulrahman/vakit/internal/display"
	"github.com/smokyabdulrahman/vakit/internal/prayer"
)

var (
	flagFormat   string
	flagInterval time.Duration
)

const formatUsage = "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template"

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Print the next prayer on a single line, suitable for status bars.\nExample: vakit next --format '{{.ShortName}} {{.Remaining}}'",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, formatUsage)

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil, true)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.coord.Start(cmd.Context())
	printNotices(cmd.ErrOrStderr(), s.Notices)

	v, ok := a.coord.Next(nowFunc())
	if !ok {
		return noSchedule(s)
	}

	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(v, flagFormat, goTimeFormat(a.cfg.TimeFormat)))
	return nil
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the home screen updated",
		Long:  "Keep running and redraw the home screen on every tick. With --format a single\nnext-prayer line is printed per tick instead. The schedule is refetched when the\ncached one goes stale. Stop with Ctrl-C.",
		RunE:  runWatch,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, formatUsage)
	cmd.Flags().DurationVar(&flagInterval, "interval", coordinator.RecomputeInterval, "How often to recompute the countdown")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.coord.Start(ctx)
	go a.keepFresh(ctx)

	out := cmd.OutOrStdout()
	goTimeFmt := goTimeFormat(a.cfg.TimeFormat)
	lineMode := cmd.Flags().Changed("format")
	var shown []coordinator.Notice

	a.coord.Watch(ctx, flagInterval, func(u coordinator.Update) {
		if !sameNotices(shown, u.State.Notices) {
			printNotices(cmd.ErrOrStderr(), u.State.Notices)
			shown = u.State.Notices
		}
		if u.Next == nil {
			fmt.Fprintln(out, "--:--")
			return
		}
		if lineMode {
			fmt.Fprintln(out, prayer.FormatOutput(*u.Next, flagFormat, goTimeFmt))
			return
		}
		fmt.Fprint(out, display.ClearScreen())
		printTodayRich(out, u.State, *u.Next, coordinator.InZone(u.At, u.State.Entry.Timezone), goTimeFmt)
	})
	return nil
}

func sameNotices(a, b []coordinator.Notice) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
