// Package scheduler triggers analysis runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rustyeddy/fxdash/pkg/logger"
)

// Analyzer starts an analysis run, reporting false when one is already in
// progress.
type Analyzer interface {
	RunAnalysis(ctx context.Context) (bool, error)
}

// Seconds are optional so both "*/30 * * * * *" and "*/5 * * * *" work, as do
// descriptors like "@every 30s".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether spec is a schedule New would accept.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return nil
}

type Scheduler struct {
	spec   string
	target Analyzer
	cron   *cron.Cron
}

func New(spec string, target Analyzer) (*Scheduler, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	return &Scheduler{
		spec:   spec,
		target: target,
		cron:   cron.New(cron.WithParser(parser)),
	}, nil
}

// Fire runs one analysis request. A run already in progress is not an error.
func (s *Scheduler) Fire(ctx context.Context) error {
	started, err := s.target.RunAnalysis(ctx)
	if err != nil {
		return err
	}
	if !started {
		logger.Debugf("[cron] analysis already running, skipped")
		return nil
	}
	logger.Infof("[cron] analysis triggered (%s)", s.spec)
	return nil
}

// Run fires on schedule until ctx is done, then waits for a firing in
// flight to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Fire(ctx); err != nil && ctx.Err() == nil {
			logger.Warnf("[cron] analysis: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Infof("scheduler started (%s)", s.spec)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Infof("scheduler stopped")
	return nil
}
