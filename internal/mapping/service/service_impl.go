package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/internal/mapping/domain"
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
		log:   p.Log.Named("mapping.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

// Link upserts the booking's mapping. The invoice id is trusted as given;
// only the family lookup consults the caches.
func (s *Service) Link(ctx context.Context, req domain.LinkRequest) (*domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if req.BookingID == 0 {
		return nil, domain.ErrInvalidBooking
	}
	externalID := strings.TrimSpace(req.ExternalInvoiceID)
	if externalID == "" {
		return nil, domain.ErrInvalidInvoiceID
	}

	exists, err := s.repo.BookingExists(ctx, s.db, ownerID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrBookingMissing
	}

	family, err := s.resolveFamily(ctx, ownerID, req.Family, externalID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if err := s.repo.Upsert(ctx, s.db, &domain.Mapping{
		ID:                s.genID.Generate(),
		OwnerID:           ownerID,
		BookingID:         req.BookingID,
		Family:            family.String(),
		ExternalInvoiceID: externalID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByBooking(ctx, s.db, ownerID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}

	s.log.Info("booking linked to invoice",
		zap.String("owner_id", ownerID.String()),
		zap.String("booking_id", req.BookingID.String()),
		zap.String("family", family.String()),
		zap.String("external_invoice_id", externalID),
	)
	view := toView(*stored)
	return &view, nil
}

// resolveFamily honors an explicit family, else looks the id up in each
// cache in order and defaults to square when no cache knows it.
func (s *Service) resolveFamily(ctx context.Context, ownerID snowflake.ID, requested, externalID string) (invoicingdomain.Family, error) {
	if strings.TrimSpace(requested) != "" {
		return invoicingdomain.ParseFamily(requested)
	}

	for _, family := range invoicingdomain.Families() {
		found, err := s.repo.CacheContains(ctx, s.db, family, ownerID, externalID)
		if err != nil {
			return "", err
		}
		if found {
			return family, nil
		}
	}
	return invoicingdomain.FamilySquare, nil
}

func (s *Service) List(ctx context.Context) ([]domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	items, err := s.repo.List(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.View, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	return views, nil
}

func (s *Service) Unlink(ctx context.Context, id snowflake.ID) error {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOwner
	}

	deleted, err := s.repo.Delete(ctx, s.db, ownerID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) Resolve(ctx context.Context, bookingID snowflake.ID) (*domain.Mapping, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	mapping, err := s.repo.FindByBooking(ctx, s.db, ownerID, bookingID)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, domain.ErrNotFound
	}
	return mapping, nil
}

func toView(item domain.Mapping) domain.View {
	return domain.View{
		ID:                item.ID.String(),
		BookingID:         item.BookingID.String(),
		Family:            item.Family,
		ExternalInvoiceID: item.ExternalInvoiceID,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}
