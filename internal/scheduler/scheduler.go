// Package scheduler fires alert scans and the morning digest on each
// organization's local wall clock. Every due slot is claimed in the
// database before running, so duplicate ticks and restarts cannot
// double-fire. Slots missed while the process is down are skipped; the
// on-demand scan endpoint covers catch-up.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mimamori/mimamori/internal/notify"
	"github.com/mimamori/mimamori/internal/orgs"
	"github.com/mimamori/mimamori/internal/scan"
	"github.com/mimamori/mimamori/pkg/lifecycle"
)

const slotMorning = "morning"

// Scheduler drives scheduled scans across all organizations.
type Scheduler struct {
	orgs     orgs.System
	scan     scan.System
	notifier notify.Notifier
	channel  string
	tick     time.Duration
	logger   *slog.Logger
}

// New creates a Scheduler. The channel is the digest fallback for
// organizations without a configured one.
func New(
	orgSys orgs.System,
	scanSys scan.System,
	notifier notify.Notifier,
	channel string,
	tick time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		orgs:     orgSys,
		scan:     scanSys,
		notifier: notifier,
		channel:  channel,
		tick:     tick,
		logger:   logger.With("system", "scheduler"),
	}
}

// Start launches the tick loop, bound to the lifecycle context.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) {
	ctx := lc.Context()

	lc.OnShutdown(func() {
		<-ctx.Done()
		s.logger.Info("scheduler stopped")
	})

	go s.run(ctx)
	s.logger.Info("scheduler started", "tick", s.tick)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Sweep checks every organization for due slots at the given instant.
// Organizations run concurrently.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) {
	orgList, err := s.orgs.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list organizations failed", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, org := range orgList {
		wg.Go(func() {
			s.sweepOrg(ctx, org, now)
		})
	}
	wg.Wait()
}

func (s *Scheduler) sweepOrg(ctx context.Context, org orgs.Organization, now time.Time) {
	loc, err := time.LoadLocation(org.Timezone)
	if err != nil {
		s.logger.WarnContext(ctx, "invalid timezone, using UTC",
			"org", org.ID,
			"timezone", org.Timezone)
		loc = time.UTC
	}

	local := now.In(loc)
	clock := local.Format("15:04")

	for _, slot := range org.AlertScanTimes {
		if slot == clock {
			s.fireAlertScan(ctx, org, local, slot)
		}
	}

	if org.MorningScanTime == clock {
		s.fireMorningDigest(ctx, org, local)
	}
}

func (s *Scheduler) fireAlertScan(ctx context.Context, org orgs.Organization, local time.Time, slot string) {
	claimed, err := s.orgs.ClaimScanSlot(ctx, org.ID, local, slot)
	if err != nil {
		s.logger.ErrorContext(ctx, "claim scan slot failed",
			"org", org.ID,
			"slot", slot,
			"error", err)
		return
	}
	if !claimed {
		return
	}

	result, err := s.scan.ScanAll(ctx, org.ID, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled scan failed",
			"org", org.ID,
			"slot", slot,
			"error", err)
		return
	}

	s.logger.Info("scheduled scan complete",
		"org", org.ID,
		"slot", slot,
		"patients", len(result.ScanResults))
}

func (s *Scheduler) fireMorningDigest(ctx context.Context, org orgs.Organization, local time.Time) {
	claimed, err := s.orgs.ClaimScanSlot(ctx, org.ID, local, slotMorning)
	if err != nil {
		s.logger.ErrorContext(ctx, "claim scan slot failed",
			"org", org.ID,
			"slot", slotMorning,
			"error", err)
		return
	}
	if !claimed {
		return
	}

	result, err := s.scan.ScanAll(ctx, org.ID, 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "morning scan failed",
			"org", org.ID,
			"error", err)
		return
	}

	channel := org.DigestChannel
	if channel == "" {
		channel = s.channel
	}

	if err := s.notifier.Post(ctx, channel, result.Report); err != nil {
		s.logger.ErrorContext(ctx, "digest delivery failed",
			"org", org.ID,
			"channel", channel,
			"error", err)
		return
	}

	s.logger.Info("morning digest delivered",
		"org", org.ID,
		"channel", channel)
}
