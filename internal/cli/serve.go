package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/vakit/internal/server"
)

var flagAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prayer times over HTTP",
		Long:  "Run a JSON API for map pages and status bars.\n\nRoutes:\n  GET  /health\n  GET  /api/state\n  GET  /api/next\n  POST /api/location          {\"latitude\": 41.0, \"longitude\": 28.9, \"city\": \"...\"}\n  POST /api/location/current\n  POST /api/refresh",
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides listen_addr)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil, false)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.ListenAddr
	if flagAddr != "" {
		addr = flagAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.coord.Start(ctx)
	go a.keepFresh(ctx)

	return server.New(addr, a.coord, a.log).Run(ctx)
}
