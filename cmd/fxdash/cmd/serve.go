package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rustyeddy/fxdash/pkg/logger"
	"github.com/rustyeddy/fxdash/scheduler"
	"github.com/rustyeddy/fxdash/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard with its HTTP API",
	Long: `Start the simulation loop and serve it over HTTP.

Endpoints:
  GET    /api/snapshot                 whole dashboard
  POST   /api/analysis                 start an analysis run
  POST   /api/auto-execute             toggle auto-execution
  POST   /api/signals/:index/execute   open a position from a signal
  POST   /api/positions                open a position {pair, side, entry}
  DELETE /api/positions/:id            close a position
  GET    /chart                        price chart
  GET    /ws                           snapshot stream

Example:
  fxdash serve -f fxdash.yaml --addr :9000`,
	RunE: runServe,
}

var (
	serveConfigPath string
	serveAddr       string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	logger.SetLevel(cfg.Log.Level)

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer closeJournal(j)

	ctl, err := newController(cfg, clockwork.NewRealClock(), j)
	if err != nil {
		return err
	}
	srv := server.New(cfg.Server.Addr, ctl)

	var sched *scheduler.Scheduler
	if cfg.Analysis.Schedule != "" {
		sched, err = scheduler.New(cfg.Analysis.Schedule, ctl)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return ctl.Run(ctx) })
	group.Go(func() error { return srv.Start(ctx) })
	if sched != nil {
		group.Go(func() error { return sched.Run(ctx) })
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard %s (%s) listening on %s (journal: %s)\n",
		cfg.Account.ID, cfg.Account.Currency, srv.Addr(), cfg.Journal.Type)

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
