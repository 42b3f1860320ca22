package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/vakit/internal/api"
	"github.com/smokyabdulrahman/vakit/internal/cache"
	"github.com/smokyabdulrahman/vakit/internal/config"
	"github.com/smokyabdulrahman/vakit/internal/coordinator"
	"github.com/smokyabdulrahman/vakit/internal/display"
	"github.com/smokyabdulrahman/vakit/internal/geo"
	"github.com/smokyabdulrahman/vakit/internal/store"
)

// Collaborator constructors, replaced in tests.
var (
	newProvider = func() coordinator.Provider { return api.NewClient() }
	newGeocoder = func() geo.Geocoder { return geo.NewNominatim() }
	newLocator  = func(p geo.Prompter) geo.Locator { return geo.NewIPLocator(p) }
	nowFunc     = time.Now
)

// app is everything a command needs once the config is resolved.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	store store.Store
	repo  *cache.Repository
	coord *coordinator.Coordinator
}

// openApp resolves the config and wires the store, the repository and the
// coordinator. A nil locator means the IP locator behind the configured
// permission policy. Non-interactive callers never prompt on the terminal.
func openApp(cmd *cobra.Command, locator geo.Locator, interactive bool) (*app, error) {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}

	log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	st, err := store.Open(cmd.Context(), cfg.StoreOptions())
	if err != nil {
		// Storage failure is non-fatal; nothing survives the process.
		log.Warn().Err(err).Str("store", cfg.Store).Msg("falling back to in-memory store")
		fmt.Fprintln(cmd.ErrOrStderr(), display.NoticeLine(display.SeverityWarning, fmt.Sprintf("cache disabled: %v", err)))
		st = store.NewMemory()
	}

	if locator == nil {
		locator = newLocator(prompterFor(cmd, cfg, interactive))
	}

	repo := cache.NewRepository(st)
	coord := coordinator.New(coordinator.Options{
		Provider: newProvider(),
		Records:  repo,
		Locator:  locator,
		Geocoder: newGeocoder(),
		Settings: coordinator.Settings{
			Method:     cfg.MethodOrDefault(api.DefaultMethod),
			Adjustment: cfg.AdjustmentOrDefault(api.DefaultAdjustment),
		},
		Logger: &log,
		Now:    nowFunc,
	})

	return &app{cfg: cfg, log: log, store: st, repo: repo, coord: coord}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// keepFresh refreshes the schedule every freshness period until ctx ends.
// Long-running commands use it so the countdown never runs on a stale day.
func (a *app) keepFresh(ctx context.Context) {
	ticker := time.NewTicker(cache.FreshnessThreshold)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.coord.Refresh(ctx)
		}
	}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// prompterFor applies the location_permission policy. --yes wins over
// everything. Without a terminal to ask on, "ask" is treated as denied.
func prompterFor(cmd *cobra.Command, cfg config.Config, interactive bool) geo.Prompter {
	switch {
	case FlagYes || cfg.LocationPermission == config.PermissionGranted:
		return geo.FixedPrompter(true)
	case cfg.LocationPermission == config.PermissionDenied, !interactive:
		return geo.FixedPrompter(false)
	}
	return geo.TerminalPrompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
}

func severityFor(kind coordinator.Kind) display.Severity {
	switch kind {
	case coordinator.KindReverseLookupFailed:
		return display.SeverityInfo
	case coordinator.KindStorageWriteFailed:
		return display.SeverityError
	}
	return display.SeverityWarning
}

func printNotices(w io.Writer, notices []coordinator.Notice) {
	for _, n := range notices {
		fmt.Fprintln(w, display.NoticeLine(severityFor(n.Kind), n.Message))
	}
}
