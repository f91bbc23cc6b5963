package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/booking/domain"
	"github.com/smallbiznis/hullbook/internal/clock"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/observability/metrics"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const calendarProvider = "google_calendar"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	Calendar     domain.Calendar
	Integrations integrationdomain.Service
	Clock        clock.Clock      `optional:"true"`
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	calendar     domain.Calendar
	integrations integrationdomain.Service
	clock        clock.Clock
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("booking.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		calendar:     p.Calendar,
		integrations: p.Integrations,
		clock:        clk,
		metrics:      p.Metrics,
	}
}

// Sync pulls the owner's calendar window and upserts every event with a
// start time. Rows written before a failing page stay committed.
func (s *Service) Sync(ctx context.Context) (*domain.SyncResult, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	creds, err := s.integrations.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := creds.RequireCalendar(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	query := domain.EventQuery{
		CalendarID: creds.GoogleCalendarID,
		TimeMin:    now.Add(-domain.SyncLookBack),
		TimeMax:    now.Add(domain.SyncLookAhead),
	}

	session, err := s.calendar.Open(ctx, creds)
	if err != nil {
		s.metrics.RecordSyncFailure(calendarProvider, "open")
		return nil, fmt.Errorf("open calendar: %w", err)
	}

	result := &domain.SyncResult{}
	for {
		page, err := session.ListEvents(ctx, query)
		if err != nil {
			s.metrics.RecordSyncFailure(calendarProvider, "list")
			return nil, fmt.Errorf("list calendar events: %w", err)
		}

		for _, event := range page.Events {
			if err := s.upsertEvent(ctx, ownerID, event, now); err != nil {
				s.metrics.RecordSyncFailure(calendarProvider, "upsert")
				return nil, err
			}
			result.Synced++
		}
		result.Skipped += page.Skipped

		if strings.TrimSpace(page.NextPageToken) == "" {
			break
		}
		if page.NextPageToken == query.PageToken {
			s.log.Warn("calendar repeated its page token, stopping sync",
				zap.String("owner_id", ownerID.String()),
				zap.String("page_token", page.NextPageToken),
			)
			break
		}
		query.PageToken = page.NextPageToken
	}

	s.metrics.RecordSync(calendarProvider, result.Synced)
	s.log.Info("calendar synced",
		zap.String("owner_id", ownerID.String()),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *Service) upsertEvent(ctx context.Context, ownerID snowflake.ID, event domain.Event, now time.Time) error {
	raw := datatypes.JSON(event.Raw)
	if len(raw) == 0 {
		raw = datatypes.JSON("{}")
	}

	var endAt *time.Time
	if event.EndAt != nil {
		end := event.EndAt.UTC()
		endAt = &end
	}

	return s.repo.Upsert(ctx, s.db, &domain.Booking{
		ID:         s.genID.Generate(),
		OwnerID:    ownerID,
		ExternalID: event.ExternalID,
		Title:      event.Title,
		StartAt:    event.StartAt.UTC(),
		EndAt:      endAt,
		RawJSON:    raw,
		SyncedAt:   now,
	})
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	now := s.clock.Now().UTC()
	from := now.Add(-domain.DefaultWindow)
	to := now
	if req.From != nil {
		from = req.From.UTC()
	}
	if req.To != nil {
		to = req.To.UTC()
	}
	if to.Before(from) {
		return nil, domain.ErrInvalidRange
	}

	items, err := s.repo.List(ctx, s.db, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	views := make([]domain.View, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if id == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, ownerID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	view := toView(*item)
	return &view, nil
}

type eventDetails struct {
	Location    string `json:"location"`
	Description string `json:"description"`
}

func toView(item domain.Booking) domain.View {
	view := domain.View{
		ID:         item.ID.String(),
		ExternalID: item.ExternalID,
		Title:      item.Title,
		StartAt:    item.StartAt,
		EndAt:      item.EndAt,
		SyncedAt:   item.SyncedAt,
	}

	var details eventDetails
	if len(item.RawJSON) > 0 && json.Unmarshal(item.RawJSON, &details) == nil {
		view.Location = strings.TrimSpace(details.Location)
		view.Description = strings.TrimSpace(details.Description)
	}
	return view
}
