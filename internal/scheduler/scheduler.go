package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/hullbook/internal/clock"
	notificationdomain "github.com/smallbiznis/hullbook/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/hullbook/internal/observability/metrics"
	"github.com/smallbiznis/hullbook/internal/scheduler/guard"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig   = errors.New("invalid_scheduler_config")
	ErrInvalidSchedule = errors.New("invalid_digest_schedule")
	ErrInvalidTimezone = errors.New("invalid_digest_timezone")
)

type Params struct {
	fx.In

	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Notifications notificationdomain.Service
	Locker        Locker              `optional:"true"`
	Metrics       *obsmetrics.Metrics `optional:"true"`
	Config        Config              `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	notifications notificationdomain.Service
	locker        Locker
	metrics       *obsmetrics.Metrics

	schedule cron.Schedule
	location *time.Location

	mu         sync.Mutex
	nextDigest time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Notifications == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()

	schedule, err := cron.ParseStandard(cfg.DigestCron)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, cfg.DigestCron, err)
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, cfg.Timezone, err)
	}

	locker := p.Locker
	if locker == nil {
		locker = newLocalLocker(p.Clock)
	}

	s := &Scheduler{
		log:           p.Log.Named("scheduler"),
		cfg:           cfg,
		genID:         p.GenID,
		clock:         p.Clock,
		notifications: p.Notifications,
		locker:        locker,
		metrics:       p.Metrics,
		schedule:      schedule,
		location:      location,
	}
	s.nextDigest = schedule.Next(p.Clock.Now().In(location))
	return s, nil
}

// NextDigest reports the slot the scheduler is waiting for.
func (s *Scheduler) NextDigest() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextDigest
}

// runJob runs fn under the parent context. The timeout is a budget, not a
// deadline: a run that overruns it is logged and left to finish so every
// owner still gets the day's digest.
func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()

	ctx, run, owner := s.ensureJobRun(parent, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)

	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	s.metrics.ObserveJob(name, elapsed, err)
	if timeout > 0 && elapsed > timeout {
		log.Warn("job exceeded its time budget",
			zap.Duration("timeout", timeout),
			zap.Duration("elapsed", elapsed),
		)
	}
	if owner {
		if err != nil && run.errorCount == 0 {
			run.AddErrors(1)
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce fires the digest when its slot has passed and schedules the next
// one. Slots that were missed by more than the grace window are skipped.
func (s *Scheduler) RunOnce(parent context.Context) error {
	now := s.clock.Now().In(s.location)

	s.mu.Lock()
	due := s.nextDigest
	if err := guard.EnsureDue(due, now); err != nil {
		s.mu.Unlock()
		return nil
	}
	s.nextDigest = s.schedule.Next(now)
	s.mu.Unlock()

	if err := guard.EnsureWithinGrace(due, now, s.cfg.MissedRunGrace); err != nil {
		s.log.Warn("digest slot missed",
			zap.Time("scheduled_at", due),
			zap.Time("now", now),
			zap.Error(err),
		)
		s.metrics.RecordDigest("missed")
		return nil
	}

	return s.runJob(parent, JobDailyDigest, s.cfg.DigestTimeout, func(ctx context.Context) error {
		return s.DailyDigestJob(ctx, due)
	})
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started",
		zap.String("digest_cron", s.cfg.DigestCron),
		zap.String("timezone", s.location.String()),
		zap.Time("next_digest", s.NextDigest()),
	)

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DailyDigestJob sends the completed-bookings digest for the local day of
// the scheduled slot. Only one replica sends per day.
func (s *Scheduler) DailyDigestJob(ctx context.Context, scheduled time.Time) error {
	day := scheduled.In(s.location)
	key := digestLockKey(day)

	acquired, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire digest lock: %w", err)
	}
	if !acquired {
		s.logger(ctx).Info("digest already claimed", zap.String("lock_key", key))
		s.metrics.RecordDigest("locked")
		return nil
	}

	result, err := s.notifications.SendDigest(ctx, day)
	run := jobRunFromContext(ctx)
	if result != nil {
		run.AddProcessed(result.Sent)
		run.AddErrors(result.Failed)
		s.logger(ctx).Info("digest dispatched",
			zap.String("day", day.Format("2006-01-02")),
			zap.Int("owners", result.Owners),
			zap.Int("sent", result.Sent),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
	}
	return err
}
