package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/notification/domain"
	"github.com/smallbiznis/hullbook/internal/observability/metrics"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"github.com/smallbiznis/hullbook/internal/providers/push"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Push      push.Provider
	Invoicing *config.InvoicingConfigHolder
	Metrics   *metrics.Metrics `optional:"true"`
	Clock     clock.Clock      `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	push      push.Provider
	invoicing *config.InvoicingConfigHolder
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	provider := p.Push
	if provider == nil {
		provider = &push.NoOpProvider{}
	}
	invoicingCfg := p.Invoicing
	if invoicingCfg == nil {
		invoicingCfg = config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig())
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("notification.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		push:      provider,
		invoicing: invoicingCfg,
		metrics:   p.Metrics,
		clock:     clk,
	}
}

func (s *Service) RegisterDevice(ctx context.Context, req domain.RegisterRequest) (*domain.DeviceView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if platform == "" {
		platform = domain.DefaultPlatform
	}

	if err := s.repo.Upsert(ctx, s.db, &domain.PushToken{
		ID:          s.genID.Generate(),
		OwnerID:     ownerID,
		DeviceToken: token,
		Platform:    platform,
		CreatedAt:   s.clock.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByDevice(ctx, s.db, ownerID, token)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("push token %q not stored", token)
	}
	return &domain.DeviceView{
		ID:        stored.ID.String(),
		Token:     stored.DeviceToken,
		Platform:  stored.Platform,
		CreatedAt: stored.CreatedAt,
	}, nil
}

// SendDigest notifies every owner who completed bookings on day. Owners are
// handled one at a time; a failed send is logged and the next owner still
// gets theirs.
func (s *Service) SendDigest(ctx context.Context, day time.Time) (*domain.DigestResult, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	counts, err := s.repo.CompletedCounts(ctx, s.db, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	result := &domain.DigestResult{}
	for _, entry := range counts {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if entry.Count <= 0 {
			continue
		}
		result.Owners++

		log := s.log.With(zap.String("owner_id", entry.OwnerID.String()), zap.Int("completed", entry.Count))
		tokens, err := s.repo.ListDeviceTokens(ctx, s.db, entry.OwnerID)
		if err != nil {
			result.Failed++
			s.metrics.RecordDigest("failed")
			log.Warn("digest token lookup failed", zap.Error(err))
			continue
		}
		if len(tokens) == 0 {
			result.Skipped++
			s.metrics.RecordDigest("skipped")
			continue
		}

		if err := s.push.Send(ctx, tokens, s.message(entry.Count)); err != nil {
			result.Failed++
			s.metrics.RecordDigest("failed")
			log.Warn("digest push failed", zap.Int("devices", len(tokens)), zap.Error(err))
			continue
		}
		result.Sent++
		s.metrics.RecordDigest("sent")
	}

	s.log.Info("daily digest finished",
		zap.String("day", from.Format("2006-01-02")),
		zap.Int("owners", result.Owners),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *Service) message(count int) string {
	messages := s.invoicing.Get().Digest
	if count == 1 {
		return messages.Singular
	}
	return fmt.Sprintf(messages.Plural, count)
}
