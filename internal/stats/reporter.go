// Package stats logs engine counters on a cron schedule.
package stats

import (
	"context"
	"fmt"
	"log"

	"anonpair/backend/internal/chathub"

	rcron "github.com/robfig/cron/v3"
)

// Source reports live engine counters.
type Source interface {
	Snapshot() chathub.Stats
}

// Reporter periodically logs a Snapshot. It never touches engine state.
type Reporter struct {
	source   Source
	schedule string
	cron     *rcron.Cron
	report   func(chathub.Stats)
}

// NewReporter validates schedule (standard five-field expression or a descriptor
// such as "@every 5m").
func NewReporter(source Source, schedule string) (*Reporter, error) {
	if _, err := rcron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}
	return &Reporter{
		source:   source,
		schedule: schedule,
		cron:     rcron.New(),
		report:   logStats,
	}, nil
}

// OnReport replaces the default log line, mainly for tests.
func (r *Reporter) OnReport(fn func(chathub.Stats)) {
	r.report = fn
}

// Tick takes one snapshot immediately.
func (r *Reporter) Tick() {
	r.report(r.source.Snapshot())
}

// Run schedules the reporter and blocks until ctx ends.
func (r *Reporter) Run(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.schedule, r.Tick); err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("INFO: stats reporter scheduled %q", r.schedule)

	<-ctx.Done()
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	return nil
}

func logStats(s chathub.Stats) {
	log.Printf("INFO: stats waiting=%d sessions=%d users=%d", s.Waiting, s.Sessions, s.Users)
}
