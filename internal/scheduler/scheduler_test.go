package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/config"
	notificationdomain "github.com/smallbiznis/hullbook/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/hullbook/internal/observability/metrics"
	hbtestutil "github.com/smallbiznis/hullbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recordingDigest stands in for the notification service. With slowOwners
// set it walks that many owners, spending perOwner of clk time on each and
// noting whether the context was still live.
type recordingDigest struct {
	mu   sync.Mutex
	days []time.Time
	err  error

	clk        *clock.FakeClock
	slowOwners int
	perOwner   time.Duration
	ctxErrs    []error
}

func (r *recordingDigest) RegisterDevice(context.Context, notificationdomain.RegisterRequest) (*notificationdomain.DeviceView, error) {
	return nil, errors.New("not used")
}

func (r *recordingDigest) SendDigest(ctx context.Context, day time.Time) (*notificationdomain.DigestResult, error) {
	for i := 0; i < r.slowOwners; i++ {
		r.clk.Advance(r.perOwner)
		r.mu.Lock()
		r.ctxErrs = append(r.ctxErrs, ctx.Err())
		r.mu.Unlock()
	}
	r.mu.Lock()
	r.days = append(r.days, day)
	r.mu.Unlock()
	return &notificationdomain.DigestResult{Owners: 2, Sent: 1, Failed: 1}, r.err
}

func (r *recordingDigest) calls() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.days...)
}

func newScheduler(t *testing.T, clk clock.Clock, digest notificationdomain.Service, cfg Config, locker Locker) *Scheduler {
	t.Helper()
	s, err := New(Params{
		Log:           zap.NewNop(),
		GenID:         hbtestutil.Node(t),
		Clock:         clk,
		Notifications: digest,
		Locker:        locker,
		Config:        cfg,
	})
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadSchedule(t *testing.T) {
	params := Params{
		Log:           zap.NewNop(),
		GenID:         hbtestutil.Node(t),
		Clock:         clock.NewFakeClock(time.Now()),
		Notifications: &recordingDigest{},
	}

	params.Config = Config{DigestCron: "every evening"}
	_, err := New(params)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	params.Config = Config{Timezone: "Mars/Olympus"}
	_, err = New(params)
	assert.ErrorIs(t, err, ErrInvalidTimezone)

	params.Notifications = nil
	_, err = New(params)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceWaitsForSlotThenSendsOnce(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 58, 0, 0, time.UTC))
	digest := &recordingDigest{}
	s := newScheduler(t, clk, digest, Config{}, nil)
	ctx := context.Background()

	assert.Equal(t, time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC), s.NextDigest().UTC())

	require.NoError(t, s.RunOnce(ctx))
	assert.Empty(t, digest.calls())

	clk.Advance(2 * time.Minute)
	require.NoError(t, s.RunOnce(ctx))
	clk.Advance(time.Minute)
	require.NoError(t, s.RunOnce(ctx))

	calls := digest.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2026-10-18", calls[0].Format("2006-01-02"))
	assert.Equal(t, time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC), s.NextDigest().UTC())

	clk.Set(time.Date(2026, 10, 19, 20, 0, 30, 0, time.UTC))
	require.NoError(t, s.RunOnce(ctx))
	assert.Len(t, digest.calls(), 2)
}

func TestRunOnceUsesDigestTimezone(t *testing.T) {
	// 20:00 in Los Angeles is 03:00 UTC the following day.
	clk := clock.NewFakeClock(time.Date(2026, 10, 19, 2, 59, 0, 0, time.UTC))
	digest := &recordingDigest{}
	s := newScheduler(t, clk, digest, Config{Timezone: "America/Los_Angeles"}, nil)

	clk.Advance(time.Minute)
	require.NoError(t, s.RunOnce(context.Background()))

	calls := digest.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "2026-10-18", calls[0].Format("2006-01-02"))
	assert.Equal(t, "America/Los_Angeles", calls[0].Location().String())
}

func TestRunOnceSkipsMissedSlot(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 0, 0, 0, time.UTC))
	digest := &recordingDigest{}
	s := newScheduler(t, clk, digest, Config{}, nil)

	clk.Set(time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC))
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Empty(t, digest.calls())
	assert.Equal(t, time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC), s.NextDigest().UTC())
}

func TestDailyDigestJobSendsOncePerDayAcrossReplicas(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 59, 0, 0, time.UTC))
	shared := newLocalLocker(clk)
	first := &recordingDigest{}
	second := &recordingDigest{}
	a := newScheduler(t, clk, first, Config{}, shared)
	b := newScheduler(t, clk, second, Config{}, shared)

	clk.Advance(time.Minute)
	require.NoError(t, a.RunOnce(context.Background()))
	require.NoError(t, b.RunOnce(context.Background()))

	assert.Len(t, first.calls(), 1)
	assert.Empty(t, second.calls())
}

func TestRunJobReportsDigestErrorsAndMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := obsmetrics.New(obsmetrics.Config{ServiceName: "hullbook", Environment: "test"}, registry)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 59, 0, 0, time.UTC))
	digest := &recordingDigest{err: errors.New("database gone")}
	s, err := New(Params{
		Log:           zap.NewNop(),
		GenID:         hbtestutil.Node(t),
		Clock:         clk,
		Notifications: digest,
		Metrics:       metrics,
	})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobDailyDigest)

	count, err := testutil.GatherAndCount(registry, "hullbook_scheduler_job_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDigestOverrunningItsBudgetStillReachesEveryOwner(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 59, 0, 0, time.UTC))
	digest := &recordingDigest{clk: clk, slowOwners: 3, perOwner: 4 * time.Minute}
	core, logs := observer.New(zap.WarnLevel)
	s, err := New(Params{
		Log:           zap.New(core),
		GenID:         hbtestutil.Node(t),
		Clock:         clk,
		Notifications: digest,
		Config:        Config{DigestTimeout: 5 * time.Minute},
	})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	require.NoError(t, s.RunOnce(context.Background()))

	require.Len(t, digest.calls(), 1)
	require.Len(t, digest.ctxErrs, 3)
	for _, ctxErr := range digest.ctxErrs {
		assert.NoError(t, ctxErr)
	}
	assert.Equal(t, 1, logs.FilterMessage("job exceeded its time budget").Len())
}

func TestDigestWithinBudgetLogsNoOverrun(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 59, 0, 0, time.UTC))
	digest := &recordingDigest{clk: clk, slowOwners: 2, perOwner: time.Minute}
	core, logs := observer.New(zap.WarnLevel)
	s, err := New(Params{
		Log:           zap.New(core),
		GenID:         hbtestutil.Node(t),
		Clock:         clk,
		Notifications: digest,
		Config:        Config{DigestTimeout: 5 * time.Minute},
	})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Zero(t, logs.FilterMessage("job exceeded its time budget").Len())
}

func TestProvideConfigReadsDigestTimeout(t *testing.T) {
	cfg := config.Config{}
	cfg.Digest.Timeout = 90 * time.Second
	assert.Equal(t, 90*time.Second, ProvideConfig(cfg).DigestTimeout)

	assert.Equal(t, 5*time.Minute, ProvideConfig(config.Config{}).DigestTimeout)
}

func TestLocalLockerExpires(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC))
	locker := newLocalLocker(clk)
	ctx := context.Background()
	key := digestLockKey(clk.Now())
	assert.Equal(t, "hullbook:digest:2026-10-18", key)

	ok, err := locker.TryLock(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.TryLock(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	clk.Advance(time.Hour)
	ok, err = locker.TryLock(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
