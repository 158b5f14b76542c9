package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rustyeddy/fxdash/chart"
	"github.com/rustyeddy/fxdash/dashboard"
	"github.com/rustyeddy/fxdash/pkg/logger"
	"github.com/rustyeddy/fxdash/sim"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a short headless dashboard session",
	Long: `Run the dashboard in the terminal for a fixed number of ticks.

The demo:
  1. Starts the price feed
  2. Runs one analysis and prints the signals
  3. Opens the best signal (or lets auto-execute do it with --auto)
  4. Prints every tick, then closes all positions and prints the summary

Examples:
  fxdash demo
  fxdash demo --ticks 30 --tick 100ms --auto --seed 42 --chart demo.html`,
	RunE: runDemo,
}

var (
	demoConfigPath string
	demoTicks      int
	demoTick       time.Duration
	demoAuto       bool
	demoSeed       int64
	demoChart      string
)

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVarP(&demoConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	demoCmd.Flags().IntVar(&demoTicks, "ticks", 10, "number of ticks to run")
	demoCmd.Flags().DurationVar(&demoTick, "tick", 200*time.Millisecond, "tick interval and analysis delay")
	demoCmd.Flags().BoolVar(&demoAuto, "auto", false, "auto-execute the best signal")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 0, "random seed (0 = time based)")
	demoCmd.Flags().StringVar(&demoChart, "chart", "", "write an HTML price chart to this path")
}

func runDemo(cmd *cobra.Command, args []string) error {
	if demoTicks < 1 {
		return fmt.Errorf("--ticks must be at least 1")
	}
	if demoTick <= 0 {
		return fmt.Errorf("--tick must be positive")
	}

	cfg, err := loadConfig(demoConfigPath)
	if err != nil {
		return err
	}
	cfg.Simulation.TickInterval = demoTick.String()
	cfg.Analysis.Delay = demoTick.String()
	cfg.Analysis.AutoExecute = cfg.Analysis.AutoExecute || demoAuto
	if demoSeed != 0 {
		cfg.Simulation.Seed = demoSeed
	}
	logger.SetLevel("warn")

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer closeJournal(j)

	ctl, err := newController(cfg, clockwork.NewRealClock(), j)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- ctl.Run(ctx) }()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Dashboard Demo ===")
	fmt.Fprintf(out, "Balance: $%.2f, tick %s, auto-execute %t\n\n", cfg.Account.Balance, demoTick, cfg.Analysis.AutoExecute)

	updates, unsubscribe := ctl.Subscribe()
	defer unsubscribe()

	if _, err := ctl.RunAnalysis(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Analyzing market...")

	var (
		lastTick  time.Time
		ticks     int
		announced bool
	)
	for ticks < demoTicks {
		s, ok := <-updates
		if !ok {
			break
		}

		if !announced && len(s.Signals) > 0 {
			announced = true
			printSignals(out, s.Signals)
			if !cfg.Analysis.AutoExecute {
				best, _ := sim.BestSignal(s.Signals)
				pos, err := ctl.Execute(ctx, best)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Opened %s %s at %.5f (%s)\n\n", pos.Side, pos.Pair, pos.Entry, pos.ID)
			}
		}

		if n := len(s.Prices); n > 0 && !s.Prices[n-1].Time.Equal(lastTick) {
			last := s.Prices[n-1]
			lastTick = last.Time
			ticks++
			fmt.Fprintf(out, "tick %3d  %s  price %.5f  open %d  P/L %+9.2f\n",
				ticks, last.Time.Format("15:04:05.000"), last.Price, s.Summary.ActiveTrades, s.Summary.TotalProfit)
		}
	}

	final, err := ctl.Snapshot(ctx)
	if err != nil {
		return err
	}
	printPositions(out, final)

	for _, p := range final.Positions {
		if _, err := ctl.Close(ctx, p.ID); err != nil {
			return err
		}
	}

	if demoChart != "" {
		if err := writeChart(demoChart, final.Prices); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✓ Chart written to %s\n", demoChart)
	}

	cancel()
	return <-runErr
}

func printSignals(w io.Writer, signals []sim.Signal) {
	fmt.Fprintf(w, "\nSignals:\n")
	for i, s := range signals {
		fmt.Fprintf(w, "  [%d] %-4s %s  entry %.5f  SL %.5f  TP %.5f  conf %d%%\n",
			i, s.Action, s.Pair, s.Entry, s.StopLoss, s.TakeProfit, s.Confidence)
		fmt.Fprintf(w, "      %s\n", s.Reason)
	}
	fmt.Fprintln(w)
}

func printPositions(w io.Writer, s dashboard.Snapshot) {
	fmt.Fprintf(w, "\nOpen positions:\n")
	if len(s.Positions) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, p := range s.Positions {
		fmt.Fprintf(w, "  %s %-4s %s  entry %.5f  current %.5f  P/L %+.2f\n",
			p.ID, p.Side, p.Pair, p.Entry, p.Current, p.Profit)
	}

	sum := s.Summary
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  Balance:       $%.2f\n", sum.Balance)
	fmt.Fprintf(w, "  Total P/L:     $%.2f (%+.2f%%)\n", sum.TotalProfit, sum.ReturnPct)
	fmt.Fprintf(w, "  Win rate:      %d%%\n", sum.WinRate)
	fmt.Fprintf(w, "  Active trades: %d\n", sum.ActiveTrades)
}

func writeChart(path string, samples []sim.Sample) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer fh.Close()
	return chart.Render(fh, samples, chart.Options{Subtitle: "demo"})
}
