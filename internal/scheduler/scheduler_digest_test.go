package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/config"
	notificationdomain "github.com/smallbiznis/hullbook/internal/notification/domain"
	notificationrepo "github.com/smallbiznis/hullbook/internal/notification/repository"
	notificationservice "github.com/smallbiznis/hullbook/internal/notification/service"
	schedtesting "github.com/smallbiznis/hullbook/internal/scheduler/testing"
	hbtestutil "github.com/smallbiznis/hullbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedPush struct {
	messages map[string]string
	failOn   string
}

func (p *capturedPush) Send(_ context.Context, deviceTokens []string, message string) error {
	for _, token := range deviceTokens {
		if token == p.failOn {
			return errors.New("device unregistered")
		}
	}
	for _, token := range deviceTokens {
		p.messages[token] = message
	}
	return nil
}

func TestDigestJobNotifiesEachOwnerIndependently(t *testing.T) {
	db := hbtestutil.OpenSQLite(t, &notificationdomain.PushToken{}, &completiondomain.Record{})
	node := hbtestutil.Node(t)
	seed := schedtesting.NewDigestSeeder(db, node)
	ctx := context.Background()

	today := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	failing := snowflake.ID(1001)
	single := snowflake.ID(1002)
	busy := snowflake.ID(1003)
	silent := snowflake.ID(1004)

	require.NoError(t, seed.Completed(ctx, failing, today))
	require.NoError(t, seed.Device(ctx, failing, "tok-failing"))

	require.NoError(t, seed.Completed(ctx, single, today))
	require.NoError(t, seed.Declined(ctx, single, today))
	require.NoError(t, seed.Completed(ctx, single, today.AddDate(0, 0, -1)))
	require.NoError(t, seed.Device(ctx, single, "tok-single"))

	for i := 0; i < 3; i++ {
		require.NoError(t, seed.Completed(ctx, busy, today.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, seed.Device(ctx, busy, "tok-busy"))

	require.NoError(t, seed.Completed(ctx, silent, today))

	clk := clock.NewFakeClock(time.Date(2026, 10, 18, 19, 59, 0, 0, time.UTC))
	pusher := &capturedPush{messages: map[string]string{}, failOn: "tok-failing"}
	notifications := notificationservice.New(notificationservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      notificationrepo.Provide(),
		Push:      pusher,
		Invoicing: config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig()),
		Clock:     clk,
	})
	s := newScheduler(t, clk, notifications, Config{}, nil)

	clk.Advance(time.Minute)
	require.NoError(t, s.RunOnce(ctx))

	assert.Equal(t, map[string]string{
		"tok-single": "You had 1 boat cleaned today.",
		"tok-busy":   "You had 3 boats cleaned today.",
	}, pusher.messages)
}
