package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/vakit/internal/config"
	"github.com/smokyabdulrahman/vakit/internal/display"
)

// Global flags shared across all subcommands.
var (
	FlagStore      string
	FlagDataDir    string
	FlagMethod     int
	FlagAdjustment int
	FlagTimeFormat string
	FlagLogLevel   string
	FlagJSON       bool
	FlagYes        bool
)

// loadedConfig holds the config file merged with the VAKIT_* environment,
// loaded during PersistentPreRunE.
var loadedConfig *config.Config

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = []struct{ flag, key string }{
	{"store", "store"},
	{"data-dir", "data_dir"},
	{"method", "method"},
	{"adjustment", "adjustment"},
	{"time-format", "time_format"},
	{"log-level", "log_level"},
}

// NewRootCmd creates the root command for the vakit CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vakit",
		Short:   "Prayer times for where you are",
		Long:    "Shows today's prayer times for your location with a countdown to the next one.\nTimes come from the Al Adhan API (Diyanet method by default) and are cached for offline use.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			loadedConfig = cfg
			if FlagJSON {
				display.SetEnabled(false)
			}
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagStore, "store", "", "Storage backend: file, sqlite, redis or memory")
	pf.StringVar(&FlagDataDir, "data-dir", "", "Data directory (default: ~/.cache/vakit/)")
	pf.IntVar(&FlagMethod, "method", -1, "Override calculation method (see `vakit methods`)")
	pf.IntVar(&FlagAdjustment, "adjustment", 0, "Override Hijri date adjustment in days (-2..2)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.BoolVarP(&FlagYes, "yes", "y", false, "Grant location permission without asking")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newLocationCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("vakit %s\n", version)
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// Flag values go through config.Set so they are validated like stored ones.
func effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if loadedConfig != nil {
		cfg = *loadedConfig
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	for _, fk := range flagKeys {
		f := changedFlag(flags, root, fk.flag)
		if f == nil {
			continue
		}
		if err := cfg.Set(fk.key, f.Value.String()); err != nil {
			return config.Config{}, fmt.Errorf("--%s: %w", fk.flag, err)
		}
	}

	return cfg.WithDefaults(), nil
}

// changedFlag returns the flag if it was explicitly set on either the local or persistent flag set.
func changedFlag(local, persistent *pflag.FlagSet, name string) *pflag.Flag {
	if f := local.Lookup(name); f != nil && f.Changed {
		return f
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return f
	}
	return nil
}

// goTimeFormat converts the configured time format to a Go layout.
func goTimeFormat(timeFormat string) string {
	if timeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}
