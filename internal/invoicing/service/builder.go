package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	mappingdomain "github.com/smallbiznis/hullbook/internal/mapping/domain"
	"github.com/smallbiznis/hullbook/pkg/money"
	"go.uber.org/zap"
)

const (
	kindTemplate = "template"
	kindCustom   = "custom"

	maxReferenceSlug = 24
)

type submission struct {
	ownerID   snowflake.ID
	family    domain.Family
	provider  domain.Provider
	creds     integrationdomain.Credentials
	title     string
	email     string
	items     []domain.LineItem
	kind      string
	bookingID snowflake.ID
}

// CreateFromTemplate issues a new invoice shaped like the one linked to the
// booking, plus any extra work. Nothing is sent upstream unless the booking
// has a linked invoice and that invoice is cached locally.
func (s *Service) CreateFromTemplate(ctx context.Context, req domain.FromTemplateRequest) (*domain.CreatedInvoice, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.BookingID == 0 {
		return nil, domain.ErrInvalidBooking
	}

	mapping, err := s.mappings.Resolve(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, mappingdomain.ErrNotFound) {
			return nil, domain.ErrNoInvoiceLinked
		}
		return nil, err
	}
	family, err := domain.ParseFamily(mapping.Family)
	if err != nil {
		return nil, err
	}

	template, err := s.repo.FindByExternalID(ctx, s.db, family, ownerID, mapping.ExternalInvoiceID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, domain.ErrTemplateNotFound
	}

	extras, err := s.extraItems(ctx, req)
	if err != nil {
		return nil, err
	}
	extraLines, err := extraLineItems(extras)
	if err != nil {
		return nil, err
	}

	provider, creds, err := s.connect(ctx, family)
	if err != nil {
		return nil, err
	}

	cfg := s.invoicing.Get()
	items, err := provider.TemplateLineItems(ctx, creds, *template, cfg.DefaultLineItemTitle)
	if err != nil {
		return nil, err
	}
	items = append(items, extraLines...)

	created, err := s.submit(ctx, submission{
		ownerID:   ownerID,
		family:    family,
		provider:  provider,
		creds:     creds,
		title:     cfg.DefaultLineItemTitle,
		email:     template.CustomerEmail,
		items:     items,
		kind:      kindTemplate,
		bookingID: req.BookingID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.completions.AttachInvoice(ctx, req.BookingID, family.String(), created.ExternalID); err != nil {
		return nil, fmt.Errorf("invoice %s created but completion not updated: %w", created.ExternalID, err)
	}
	return created, nil
}

// CreateCustom issues a one-line invoice. A booking, when given, is linked
// to the new invoice.
func (s *Service) CreateCustom(ctx context.Context, req domain.CustomRequest) (*domain.CreatedInvoice, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	value, err := money.Parse(req.Amount)
	if err != nil || !value.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	amountMinor, err := money.ToMinor(req.Amount)
	if err != nil || amountMinor <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	cfg := s.invoicing.Get()
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = cfg.DefaultLineItemTitle
	}

	var bookingID snowflake.ID
	if req.BookingID != nil && *req.BookingID != 0 {
		if _, err := s.bookings.Get(ctx, *req.BookingID); err != nil {
			if errors.Is(err, bookingdomain.ErrNotFound) {
				return nil, domain.ErrInvalidBooking
			}
			return nil, err
		}
		bookingID = *req.BookingID
	}

	provider, creds, err := s.connect(ctx, req.Family)
	if err != nil {
		return nil, err
	}

	created, err := s.submit(ctx, submission{
		ownerID:   ownerID,
		family:    req.Family,
		provider:  provider,
		creds:     creds,
		title:     title,
		email:     strings.TrimSpace(req.CustomerEmail),
		items:     []domain.LineItem{{Name: title, Quantity: "1", UnitAmountMinor: amountMinor}},
		kind:      kindCustom,
		bookingID: bookingID,
	})
	if err != nil {
		return nil, err
	}

	if bookingID != 0 {
		if _, err := s.mappings.Link(ctx, mappingdomain.LinkRequest{
			BookingID:         bookingID,
			ExternalInvoiceID: created.ExternalID,
			Family:            req.Family.String(),
		}); err != nil {
			return nil, fmt.Errorf("invoice %s created but booking not linked: %w", created.ExternalID, err)
		}
		if err := s.completions.AttachInvoice(ctx, bookingID, req.Family.String(), created.ExternalID); err != nil {
			return nil, fmt.Errorf("invoice %s created but completion not updated: %w", created.ExternalID, err)
		}
	}
	return created, nil
}

// submit sends the invoice upstream and caches it. Upstream failures are
// returned untouched and nothing is written locally.
func (s *Service) submit(ctx context.Context, sub submission) (*domain.CreatedInvoice, error) {
	cfg := s.invoicing.Get()
	now := s.clock.Now().UTC()
	key := ulid.Make().String()

	created, err := sub.provider.CreateOrderAndInvoice(ctx, sub.creds, domain.SubmitRequest{
		Title:          sub.title,
		CustomerEmail:  sub.email,
		Currency:       cfg.Currency,
		DueDate:        now.AddDate(0, 0, cfg.DueInDays).Format("2006-01-02"),
		Reference:      reference(cfg.ReferencePrefix, sub.title, key),
		ChannelName:    cfg.ChannelName,
		IdempotencyKey: key,
		Items:          sub.items,
	})
	if err != nil {
		s.log.Warn("invoice creation failed",
			zap.String("family", sub.family.String()),
			zap.String("kind", sub.kind),
			zap.String("owner_id", sub.ownerID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repo.Upsert(ctx, s.db, sub.family, s.cacheRow(sub.ownerID, created.Record, now)); err != nil {
		return nil, fmt.Errorf("invoice %s created but not cached: %w", created.ExternalID, err)
	}

	s.metrics.RecordInvoiceCreated(sub.family.String(), sub.kind)
	fields := []zap.Field{
		zap.String("family", sub.family.String()),
		zap.String("kind", sub.kind),
		zap.String("external_id", created.ExternalID),
		zap.String("owner_id", sub.ownerID.String()),
	}
	if sub.bookingID != 0 {
		fields = append(fields, zap.String("booking_id", sub.bookingID.String()))
	}
	s.log.Info("invoice created", fields...)

	return &domain.CreatedInvoice{
		Family:           sub.family,
		ExternalID:       created.ExternalID,
		OrderID:          created.OrderID,
		CustomerEmail:    created.CustomerEmail,
		Amount:           created.Amount,
		LineItemsSummary: created.Summary,
		Raw:              created.Raw,
	}, nil
}

// extraItems prefers the request's items. Without them the booking's stored
// completion extra work is used.
func (s *Service) extraItems(ctx context.Context, req domain.FromTemplateRequest) ([]completiondomain.ExtraItem, error) {
	if req.ExtraItems != nil {
		return *req.ExtraItems, nil
	}
	record, err := s.completions.Get(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, completiondomain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record.ExtraWork, nil
}

// extraLineItems converts extra work into invoice lines. Items missing a
// title or an amount are skipped.
func extraLineItems(extras []completiondomain.ExtraItem) ([]domain.LineItem, error) {
	lines := make([]domain.LineItem, 0, len(extras))
	for _, extra := range extras {
		title := strings.TrimSpace(extra.Title)
		amount := strings.TrimSpace(extra.Amount)
		if title == "" || amount == "" {
			continue
		}
		minor, err := money.ToMinor(amount)
		if err != nil || minor < 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidExtraAmount, extra.Amount)
		}
		lines = append(lines, domain.LineItem{Name: title, Quantity: "1", UnitAmountMinor: minor})
	}
	return lines, nil
}

// reference is a short human-readable order reference such as
// "hullbook-boat-cleaning-7q2m4k9d".
func reference(prefix, title, key string) string {
	base := slug.Make(strings.TrimSpace(prefix + " " + title))
	if len(base) > maxReferenceSlug {
		base = strings.Trim(base[:maxReferenceSlug], "-")
	}
	suffix := strings.ToLower(key)
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return strings.Join(lo.Compact([]string{base, suffix}), "-")
}
