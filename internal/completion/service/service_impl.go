package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("completion.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if req.BookingID == 0 {
		return nil, domain.ErrInvalidBooking
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.BookingExists(ctx, s.db, ownerID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrBookingMissing
	}

	now := s.clock.Now().UTC()
	record := &domain.Record{
		ID:                s.genID.Generate(),
		OwnerID:           ownerID,
		BookingID:         req.BookingID,
		Status:            status,
		Notes:             trimmedPtr(req.Notes),
		InvoiceFamily:     nonEmptyPtr(req.InvoiceFamily),
		InvoiceExternalID: nonEmptyPtr(req.InvoiceExternalID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.ExtraWork != nil {
		encoded := domain.EncodeExtraWork(req.ExtraWork.Items)
		record.ExtraWork = &encoded
	}

	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByBooking(ctx, s.db, ownerID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}

	s.log.Info("completion recorded",
		zap.String("owner_id", ownerID.String()),
		zap.String("booking_id", req.BookingID.String()),
		zap.String("status", string(status)),
	)
	view := toView(*stored)
	return &view, nil
}

func (s *Service) List(ctx context.Context) ([]domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	records, err := s.repo.ListByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.View, 0, len(records))
	for _, record := range records {
		views = append(views, toView(record))
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, bookingID snowflake.ID) (*domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if bookingID == 0 {
		return nil, domain.ErrInvalidBooking
	}

	record, err := s.repo.FindByBooking(ctx, s.db, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	view := toView(*record)
	return &view, nil
}

// AttachInvoice points the booking's completion record at a newly created
// invoice. Bookings without a record are left alone.
func (s *Service) AttachInvoice(ctx context.Context, bookingID snowflake.ID, family, externalID string) error {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOwner
	}

	updated, err := s.repo.UpdateInvoice(ctx, s.db, ownerID, bookingID, family, externalID, s.clock.Now().UTC())
	if err != nil {
		return err
	}
	if !updated {
		s.log.Debug("no completion record to attach invoice to",
			zap.String("booking_id", bookingID.String()),
		)
	}
	return nil
}

func toView(record domain.Record) domain.View {
	view := domain.View{
		ID:        record.ID.String(),
		BookingID: record.BookingID.String(),
		Status:    record.Status,
		ExtraWork: []domain.ExtraItem{},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.Notes != nil {
		view.Notes = *record.Notes
	}
	if record.ExtraWork != nil {
		view.ExtraWork = domain.ParseExtraWork(*record.ExtraWork).Items()
	}
	if record.InvoiceFamily != nil {
		view.InvoiceFamily = *record.InvoiceFamily
	}
	if record.InvoiceExternalID != nil {
		view.InvoiceExternalID = *record.InvoiceExternalID
	}
	return view
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}

func nonEmptyPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
