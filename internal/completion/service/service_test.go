package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/completion/repository"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"github.com/smallbiznis/hullbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

func setup(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	return setupWithClock(t, clock.NewFakeClock(fixedNow))
}

func setupWithClock(t *testing.T, clk clock.Clock) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := testutil.OpenSQLite(t, &bookingdomain.Booking{}, &domain.Record{})
	node := testutil.Node(t)
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clk,
	})
	return svc, db, node
}

func seedBooking(t *testing.T, db *gorm.DB, node *snowflake.Node, ownerID snowflake.ID) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&bookingdomain.Booking{
		ID:         id,
		OwnerID:    ownerID,
		ExternalID: "ev-" + id.String(),
		Title:      "Wash",
		StartAt:    now,
		RawJSON:    datatypes.JSON(`{}`),
		SyncedAt:   now,
	}).Error)
	return id
}

func strPtr(v string) *string { return &v }

func TestRecordKeepsStoredValuesForNilFields(t *testing.T) {
	svc, db, node := setup(t)
	ctx := ownercontext.WithOwnerID(context.Background(), 5)
	bookingID := seedBooking(t, db, node, 5)

	_, err := svc.Record(ctx, domain.RecordRequest{
		BookingID: bookingID,
		Status:    "yes",
		Notes:     strPtr("bottom paint scuffed"),
		ExtraWork: &domain.ExtraWorkInput{Items: []domain.ExtraItem{{Title: "Wax", Amount: "30"}}},
	})
	require.NoError(t, err)

	view, err := svc.Record(ctx, domain.RecordRequest{BookingID: bookingID, Status: "no"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNo, view.Status)
	assert.Equal(t, "bottom paint scuffed", view.Notes)
	assert.Equal(t, []domain.ExtraItem{{Title: "Wax", Amount: "30"}}, view.ExtraWork)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecordClearsExtraWorkWithEmptyList(t *testing.T) {
	svc, db, node := setup(t)
	ctx := ownercontext.WithOwnerID(context.Background(), 5)
	bookingID := seedBooking(t, db, node, 5)

	_, err := svc.Record(ctx, domain.RecordRequest{
		BookingID: bookingID,
		Status:    "yes",
		ExtraWork: &domain.ExtraWorkInput{Items: []domain.ExtraItem{{Title: "Wax", Amount: "30"}}},
	})
	require.NoError(t, err)

	view, err := svc.Record(ctx, domain.RecordRequest{
		BookingID: bookingID,
		Status:    "yes",
		ExtraWork: &domain.ExtraWorkInput{},
	})
	require.NoError(t, err)
	assert.Empty(t, view.ExtraWork)
}

func TestRecordRejectsUnknownBookingAndStatus(t *testing.T) {
	svc, db, node := setup(t)
	ctx := ownercontext.WithOwnerID(context.Background(), 5)
	foreign := seedBooking(t, db, node, 6)

	_, err := svc.Record(ctx, domain.RecordRequest{BookingID: foreign, Status: "yes"})
	assert.ErrorIs(t, err, domain.ErrBookingMissing)

	own := seedBooking(t, db, node, 5)
	_, err = svc.Record(ctx, domain.RecordRequest{BookingID: own, Status: "later"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestAttachInvoice(t *testing.T) {
	svc, db, node := setup(t)
	ctx := ownercontext.WithOwnerID(context.Background(), 5)
	bookingID := seedBooking(t, db, node, 5)

	// No record yet: nothing to update and no error.
	require.NoError(t, svc.AttachInvoice(ctx, bookingID, "square", "inv-1"))
	_, err := svc.Get(ctx, bookingID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Record(ctx, domain.RecordRequest{BookingID: bookingID, Status: "completed"})
	require.NoError(t, err)
	require.NoError(t, svc.AttachInvoice(ctx, bookingID, "square", "inv-2"))

	view, err := svc.Get(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, "square", view.InvoiceFamily)
	assert.Equal(t, "inv-2", view.InvoiceExternalID)
	assert.Equal(t, domain.StatusYes, view.Status)
}

func TestRecordTimestampsFollowTheClock(t *testing.T) {
	clk := clock.NewFakeClock(fixedNow)
	svc, db, node := setupWithClock(t, clk)
	ctx := ownercontext.WithOwnerID(context.Background(), 5)
	bookingID := seedBooking(t, db, node, 5)

	first, err := svc.Record(ctx, domain.RecordRequest{BookingID: bookingID, Status: "yes"})
	require.NoError(t, err)
	assert.WithinDuration(t, fixedNow, first.CreatedAt, time.Second)
	assert.WithinDuration(t, fixedNow, first.UpdatedAt, time.Second)

	clk.Advance(2 * time.Hour)
	second, err := svc.Record(ctx, domain.RecordRequest{BookingID: bookingID, Status: "no"})
	require.NoError(t, err)
	assert.WithinDuration(t, fixedNow, second.CreatedAt, time.Second)
	assert.WithinDuration(t, fixedNow.Add(2*time.Hour), second.UpdatedAt, time.Second)

	clk.Advance(time.Hour)
	require.NoError(t, svc.AttachInvoice(ctx, bookingID, "square", "inv-9"))
	attached, err := svc.Get(ctx, bookingID)
	require.NoError(t, err)
	assert.WithinDuration(t, fixedNow.Add(3*time.Hour), attached.UpdatedAt, time.Second)
}
