package cmd

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rustyeddy/fxdash/config"
	"github.com/rustyeddy/fxdash/dashboard"
	"github.com/rustyeddy/fxdash/journal"
	"github.com/rustyeddy/fxdash/pkg/id"
	"github.com/rustyeddy/fxdash/pkg/logger"
	"github.com/rustyeddy/fxdash/sim"
)

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openJournal(c config.JournalConfig) (journal.Journal, error) {
	switch c.Type {
	case "csv":
		return journal.NewCSV(c.TradesFile, c.EquityFile)
	case "sqlite":
		return journal.NewSQLite(c.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

// closeJournal flushes j, logging rather than returning the error so it can
// be deferred.
func closeJournal(j journal.Journal) {
	if err := j.Close(); err != nil {
		logger.Warnf("close journal: %v", err)
	}
}

func newController(cfg *config.Config, clock clockwork.Clock, j journal.Journal) (*dashboard.Controller, error) {
	tick, err := cfg.Simulation.TickDuration()
	if err != nil {
		return nil, fmt.Errorf("tick interval: %w", err)
	}
	delay, err := cfg.Analysis.DelayDuration()
	if err != nil {
		return nil, fmt.Errorf("analysis delay: %w", err)
	}

	opts := dashboard.Options{
		Clock:         clock,
		Rand:          sim.NewRand(cfg.Simulation.Seed),
		Journal:       j,
		TickInterval:  tick,
		AnalysisDelay: delay,
		AutoExecute:   cfg.Analysis.AutoExecute,
	}
	if cfg.Simulation.Seed != 0 {
		opts.NewID = id.NewSeeded(clock.Now, cfg.Simulation.Seed).New
	}
	return dashboard.New(cfg.Params(), opts), nil
}
