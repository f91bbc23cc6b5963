package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	"github.com/smallbiznis/hullbook/internal/clock"
	completiondomain "github.com/smallbiznis/hullbook/internal/completion/domain"
	"github.com/smallbiznis/hullbook/internal/config"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/internal/invoicing/adapters"
	"github.com/smallbiznis/hullbook/internal/invoicing/domain"
	mappingdomain "github.com/smallbiznis/hullbook/internal/mapping/domain"
	"github.com/smallbiznis/hullbook/internal/observability/metrics"
	"github.com/smallbiznis/hullbook/internal/ownercontext"
	"github.com/smallbiznis/hullbook/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	Registry     *adapters.Registry
	Integrations integrationdomain.Service
	Mappings     mappingdomain.Service
	Completions  completiondomain.Service
	Bookings     bookingdomain.Service
	Invoicing    *config.InvoicingConfigHolder
	PDF          pdf.Provider
	Metrics      *metrics.Metrics `optional:"true"`
	Clock        clock.Clock      `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	registry     *adapters.Registry
	integrations integrationdomain.Service
	mappings     mappingdomain.Service
	completions  completiondomain.Service
	bookings     bookingdomain.Service
	invoicing    *config.InvoicingConfigHolder
	pdf          pdf.Provider
	metrics      *metrics.Metrics
	clock        clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	invoicingCfg := p.Invoicing
	if invoicingCfg == nil {
		invoicingCfg = config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig())
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoicing.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		registry:     p.Registry,
		integrations: p.Integrations,
		mappings:     p.Mappings,
		completions:  p.Completions,
		bookings:     p.Bookings,
		invoicing:    invoicingCfg,
		pdf:          p.PDF,
		metrics:      p.Metrics,
		clock:        clk,
	}
}

// connect resolves the family's provider and the owner's effective
// credentials. Missing credentials fail here, before any network call.
func (s *Service) connect(ctx context.Context, family domain.Family) (domain.Provider, integrationdomain.Credentials, error) {
	if family.Table() == "" {
		return nil, integrationdomain.Credentials{}, domain.ErrInvalidFamily
	}
	provider, err := s.registry.Provider(family)
	if err != nil {
		return nil, integrationdomain.Credentials{}, err
	}
	creds, err := s.integrations.Resolve(ctx)
	if err != nil {
		return nil, integrationdomain.Credentials{}, err
	}
	if err := provider.Validate(creds); err != nil {
		return nil, integrationdomain.Credentials{}, err
	}
	return provider, creds, nil
}

func (s *Service) cacheRow(ownerID snowflake.ID, record domain.Record, syncedAt time.Time) *domain.CachedInvoice {
	raw := record.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return &domain.CachedInvoice{
		ID:               s.genID.Generate(),
		OwnerID:          ownerID,
		ExternalID:       record.ExternalID,
		CustomerEmail:    record.CustomerEmail,
		Amount:           record.Amount,
		LineItemsSummary: record.Summary,
		RawJSON:          datatypes.JSON(raw),
		SyncedAt:         syncedAt,
	}
}

func ownerFrom(ctx context.Context) (snowflake.ID, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOwner
	}
	return ownerID, nil
}
