package service

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/notification/domain"
	"github.com/smallbiznis/hullbook/internal/notification/repository"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"github.com/smallbiznis/hullbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var now = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

type sent struct {
	tokens  []string
	message string
}

// recordingPush captures sends and fails for the listed device tokens.
type recordingPush struct {
	sent   []sent
	failOn map[string]bool
}

func (p *recordingPush) Send(ctx context.Context, deviceTokens []string, message string) error {
	for _, token := range deviceTokens {
		if p.failOn[token] {
			return errors.New("gateway rejected device")
		}
	}
	p.sent = append(p.sent, sent{tokens: deviceTokens, message: message})
	return nil
}

type fixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
	push *recordingPush
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenSQLite(t, &domain.PushToken{}, &completiondomain.Record{})
	node := testutil.Node(t)
	pusher := &recordingPush{failOn: map[string]bool{}}
	return fixture{
		svc: New(Params{
			DB:        db,
			Log:       zap.NewNop(),
			GenID:     node,
			Repo:      repository.Provide(),
			Push:      pusher,
			Invoicing: config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig()),
			Clock:     clock.NewFakeClock(now),
		}),
		db:   db,
		node: node,
		push: pusher,
	}
}

func (f fixture) register(t *testing.T, owner snowflake.ID, token string) {
	t.Helper()
	_, err := f.svc.RegisterDevice(ownercontext.WithOwnerID(context.Background(), owner), domain.RegisterRequest{Token: token})
	require.NoError(t, err)
}

func (f fixture) complete(t *testing.T, owner snowflake.ID, status completiondomain.Status, at time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&completiondomain.Record{
		ID:        f.node.Generate(),
		OwnerID:   owner,
		BookingID: f.node.Generate(),
		Status:    status,
		CreatedAt: at,
		UpdatedAt: at,
	}).Error)
}

func TestRegisterDeviceIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := ownercontext.WithOwnerID(context.Background(), 3)

	first, err := f.svc.RegisterDevice(ctx, domain.RegisterRequest{Token: " device-a "})
	require.NoError(t, err)
	assert.Equal(t, "ios", first.Platform)

	second, err := f.svc.RegisterDevice(ctx, domain.RegisterRequest{Token: "device-a", Platform: "Android"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "android", second.Platform)

	var count int64
	require.NoError(t, f.db.Model(&domain.PushToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = f.svc.RegisterDevice(ctx, domain.RegisterRequest{Token: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.svc.RegisterDevice(context.Background(), domain.RegisterRequest{Token: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestSendDigestWording(t *testing.T) {
	f := setup(t)
	f.register(t, 1, "one")
	f.register(t, 2, "two")
	f.complete(t, 1, completiondomain.StatusYes, now.Add(-time.Hour))
	f.complete(t, 2, completiondomain.StatusYes, now.Add(-2*time.Hour))
	f.complete(t, 2, completiondomain.StatusYes, now.Add(-3*time.Hour))
	f.complete(t, 2, completiondomain.StatusNo, now.Add(-3*time.Hour))
	f.complete(t, 2, completiondomain.StatusYes, now.AddDate(0, 0, -1))

	result, err := f.svc.SendDigest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, &domain.DigestResult{Owners: 2, Sent: 2}, result)

	require.Len(t, f.push.sent, 2)
	assert.Equal(t, sent{tokens: []string{"one"}, message: "You had 1 boat cleaned today."}, f.push.sent[0])
	assert.Equal(t, sent{tokens: []string{"two"}, message: "You had 2 boats cleaned today."}, f.push.sent[1])
}

func TestSendDigestIsolatesOwnerFailures(t *testing.T) {
	f := setup(t)
	f.register(t, 1, "broken")
	f.register(t, 3, "healthy")
	f.complete(t, 1, completiondomain.StatusYes, now)
	f.complete(t, 2, completiondomain.StatusYes, now)
	f.complete(t, 3, completiondomain.StatusYes, now)
	f.push.failOn["broken"] = true

	result, err := f.svc.SendDigest(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, &domain.DigestResult{Owners: 3, Sent: 1, Skipped: 1, Failed: 1}, result)
	require.Len(t, f.push.sent, 1)
	assert.Equal(t, []string{"healthy"}, f.push.sent[0].tokens)
}

func TestSendDigestUsesLocalDay(t *testing.T) {
	f := setup(t)
	f.register(t, 1, "one")
	// 2026-10-19 02:00 UTC is still the 18th in New York.
	f.complete(t, 1, completiondomain.StatusYes, time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC))

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	result, err := f.svc.SendDigest(context.Background(), time.Date(2026, 10, 18, 20, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
}
