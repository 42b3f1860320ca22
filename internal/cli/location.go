package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/vakit/internal/geo"
)

var (
	flagCity      string
	flagLatitude  float64
	flagLongitude float64
)

func newLocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Show or change the selected location",
		Long:  "Display the saved location, or use subcommands to pick a new one.\nChanging the location drops the cached schedule and downloads a new one.",
		RunE:  runLocationShow,
	}

	set := &cobra.Command{
		Use:   "set <latitude> <longitude>",
		Short: "Pick a location by coordinates",
		Long:  "Pick a location by coordinates. Without --city the place name is looked up.\n\nExample:\n  vakit location set 41.0082 28.9784 --city \"Fatih/İstanbul\"",
		Args:  cobra.ExactArgs(2),
		RunE:  runLocationSet,
	}
	set.Flags().StringVar(&flagCity, "city", "", "Place name to show instead of looking it up")
	cmd.AddCommand(set)

	current := &cobra.Command{
		Use:   "current",
		Short: "Use the current device location",
		Long:  "Ask for location permission and use the current position.\nWith --latitude and --longitude the given position is used as the device reading.",
		RunE:  runLocationCurrent,
	}
	current.Flags().Float64Var(&flagLatitude, "latitude", 0, "Device latitude")
	current.Flags().Float64Var(&flagLongitude, "longitude", 0, "Device longitude")
	current.MarkFlagsRequiredTogether("latitude", "longitude")
	cmd.AddCommand(current)

	return cmd
}

func runLocationShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil, true)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := a.repo.LoadLocation(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		data, err := json.MarshalIndent(loc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if loc == nil {
		fmt.Fprintln(out, "No location selected.")
		return nil
	}

	fmt.Fprintf(out, "  %s\n", locationLabel(loc))
	fmt.Fprintf(out, "  %s\n", geo.CoordinateLabel(loc.Latitude, loc.Longitude))
	if loc.Timestamp != nil {
		fmt.Fprintf(out, "  selected %s\n", loc.Timestamp.Local().Format("02 Jan 2006 15:04"))
	}
	return nil
}

func runLocationSet(cmd *cobra.Command, args []string) error {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q: %w", args[0], err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q: %w", args[1], err)
	}

	a, err := openApp(cmd, nil, true)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.coord.ChangeLocation(cmd.Context(), lat, lon, flagCity)
	if err != nil {
		return err
	}
	return a.render(cmd, s)
}

func runLocationCurrent(cmd *cobra.Command, args []string) error {
	var locator geo.Locator
	if cmd.Flags().Changed("latitude") {
		if !geo.ValidCoordinate(flagLatitude, flagLongitude) {
			return fmt.Errorf("invalid coordinate %v, %v", flagLatitude, flagLongitude)
		}
		locator = geo.FixedLocator{Latitude: flagLatitude, Longitude: flagLongitude}
	}

	a, err := openApp(cmd, locator, true)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.render(cmd, a.coord.UseCurrentLocation(cmd.Context()))
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download today's prayer times again",
		Long:  "Refetch the schedule for the selected location even when the cached one is fresh.\nIf the download fails the cached schedule is kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, nil, true)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.render(cmd, a.coord.StartRefresh(cmd.Context()))
		},
	}
}
