package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/hullbook/internal/analytics/domain"
	"github.com/smallbiznis/hullbook/internal/clock"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	invoicingdomain "github.com/smallbiznis/hullbook/internal/invoicing/domain"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"github.com/smallbiznis/hullbook/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("analytics.service"),
		clock: clk,
	}
}

// completedRow is one completed booking with the amount of whichever cached
// invoice its mapping points at.
type completedRow struct {
	BookingID         snowflake.ID
	BookingTitle      *string
	Family            *string
	SquareAmount      *string
	SquarespaceAmount *string
}

func (r completedRow) customer() string {
	if r.BookingTitle == nil || strings.TrimSpace(*r.BookingTitle) == "" {
		return domain.UntitledCustomer
	}
	return strings.TrimSpace(*r.BookingTitle)
}

// amount is the cached total of the linked invoice, or "" when the
// completion has none.
func (r completedRow) amount() string {
	amount := r.SquarespaceAmount
	if r.Family != nil && *r.Family == invoicingdomain.FamilySquare.String() {
		amount = r.SquareAmount
	}
	if amount == nil {
		return ""
	}
	return *amount
}

func (s *Service) Summary(ctx context.Context, req domain.RangeRequest) (*domain.Summary, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	from, to, err := s.normalizeRange(req, domain.SummaryWindowDays)
	if err != nil {
		return nil, err
	}

	rows, err := s.completedRows(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	amounts := make([]string, 0, len(rows))
	customers := map[string]struct{}{}
	for _, row := range rows {
		amounts = append(amounts, row.amount())
		customers[row.customer()] = struct{}{}
	}
	total := money.Sum(amounts...)

	return &domain.Summary{
		From:                   from.Format(dateLayout),
		To:                     to.Format(dateLayout),
		TotalCompletedBookings: len(rows),
		TotalRevenue:           total.StringFixed(2),
		DistinctCustomers:      len(customers),
	}, nil
}

func (s *Service) ByCustomer(ctx context.Context, req domain.RangeRequest) (*domain.CustomerReport, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	from, to, err := s.normalizeRange(req, domain.CustomerWindowDays)
	if err != nil {
		return nil, err
	}

	rows, err := s.completedRows(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count   int
		revenue decimal.Decimal
	}
	order := []string{}
	buckets := map[string]*bucket{}
	for _, row := range rows {
		name := row.customer()
		b, ok := buckets[name]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			buckets[name] = b
			order = append(order, name)
		}
		b.count++
		b.revenue = b.revenue.Add(money.Sum(row.amount()))
	}

	sort.SliceStable(order, func(i, j int) bool {
		return buckets[order[i]].revenue.GreaterThan(buckets[order[j]].revenue)
	})

	customers := make([]domain.CustomerRevenue, 0, len(order))
	for _, name := range order {
		customers = append(customers, domain.CustomerRevenue{
			Customer: name,
			Count:    buckets[name].count,
			Revenue:  buckets[name].revenue.StringFixed(2),
		})
	}

	return &domain.CustomerReport{
		From:      from.Format(dateLayout),
		To:        to.Format(dateLayout),
		Customers: customers,
	}, nil
}

// normalizeRange widens the request to whole days: from midnight on the
// first day through the last instant of the final day.
func (s *Service) normalizeRange(req domain.RangeRequest, defaultDays int) (time.Time, time.Time, error) {
	today := startOfDay(s.clock.Now())

	to := today
	if req.To != nil {
		to = startOfDay(*req.To)
	}
	from := to.AddDate(0, 0, -defaultDays)
	if req.From != nil {
		from = startOfDay(*req.From)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return from, to, nil
}

func (s *Service) completedRows(ctx context.Context, ownerID snowflake.ID, from, to time.Time) ([]completedRow, error) {
	var rows []completedRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT c.booking_id AS booking_id,
			b.title AS booking_title,
			m.family AS family,
			sq.amount AS square_amount,
			ss.amount AS squarespace_amount
		 FROM completion_records c
		 LEFT JOIN bookings b
			ON b.id = c.booking_id AND b.owner_id = c.owner_id
		 LEFT JOIN event_invoice_mappings m
			ON m.booking_id = c.booking_id AND m.owner_id = c.owner_id
		 LEFT JOIN square_invoices sq
			ON m.family = 'square' AND sq.owner_id = m.owner_id AND sq.external_id = m.external_invoice_id
		 LEFT JOIN squarespace_orders ss
			ON m.family = 'squarespace' AND ss.owner_id = m.owner_id AND ss.external_id = m.external_invoice_id
		 WHERE c.owner_id = ?
			AND c.status = ?
			AND c.created_at >= ?
			AND c.created_at < ?
		 ORDER BY c.created_at ASC`,
		ownerID,
		string(completiondomain.StatusYes),
		from,
		to.AddDate(0, 0, 1),
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
