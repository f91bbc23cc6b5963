package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/integration/domain"
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
	Cfg   config.Config
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	defaults config.ProviderDefaults
	clock    clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("integration.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		defaults: p.Cfg.Providers,
		clock:    clk,
	}
}

func (s *Service) Get(ctx context.Context) (*domain.Status, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	settings, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	return buildStatus(settings, s.defaults), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Status, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if req.Empty() {
		return nil, domain.ErrEmptyUpdate
	}

	settings, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	if settings == nil {
		settings = &domain.Settings{
			ID:        s.genID.Generate(),
			OwnerID:   ownerID,
			CreatedAt: now,
		}
	}
	applyPatch(settings, req)
	settings.UpdatedAt = now

	if err := s.repo.Upsert(ctx, s.db, settings); err != nil {
		return nil, err
	}

	s.log.Info("integration settings updated",
		zap.String("owner_id", ownerID.String()),
		zap.Strings("fields", patchedFields(req)),
	)
	return buildStatus(settings, s.defaults), nil
}

func (s *Service) Resolve(ctx context.Context) (domain.Credentials, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return domain.Credentials{}, domain.ErrInvalidOwner
	}

	settings, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return domain.Credentials{}, err
	}
	return ResolveCredentials(settings, s.defaults), nil
}

// ResolveCredentials layers owner settings over process defaults field by
// field. A non-empty owner value always wins.
func ResolveCredentials(settings *domain.Settings, defaults config.ProviderDefaults) domain.Credentials {
	var owner domain.Settings
	if settings != nil {
		owner = *settings
	}

	return domain.Credentials{
		GoogleRefreshToken: value(owner.GoogleRefreshToken),
		GoogleCalendarID:   firstNonEmpty(value(owner.GoogleCalendarID), domain.DefaultCalendarID),
		SquarespaceAPIKey:  firstNonEmpty(value(owner.SquarespaceAPIKey), defaults.SquarespaceAPIKey),
		SquarespaceSiteID:  value(owner.SquarespaceSiteID),
		SquareAccessToken:  firstNonEmpty(value(owner.SquareAccessToken), defaults.SquareAccessToken),
		SquareLocationID:   firstNonEmpty(value(owner.SquareLocationID), defaults.SquareLocationID),
	}
}

func buildStatus(settings *domain.Settings, defaults config.ProviderDefaults) *domain.Status {
	creds := ResolveCredentials(settings, defaults)
	ownerSquare := settings != nil && value(settings.SquareAccessToken) != ""

	return &domain.Status{
		GoogleConnected:      creds.GoogleRefreshToken != "",
		GoogleCalendarID:     creds.GoogleCalendarID,
		SquarespaceConnected: creds.SquarespaceAPIKey != "",
		SquarespaceSiteID:    creds.SquarespaceSiteID,
		SquareConnected:      creds.RequireSquare() == nil,
		SquareLocationID:     creds.SquareLocationID,
		SquareUsesDefault:    !ownerSquare && creds.SquareAccessToken != "",
	}
}

func applyPatch(settings *domain.Settings, req domain.UpdateRequest) {
	patch(&settings.GoogleRefreshToken, req.GoogleRefreshToken)
	patch(&settings.GoogleCalendarID, req.GoogleCalendarID)
	patch(&settings.SquarespaceAPIKey, req.SquarespaceAPIKey)
	patch(&settings.SquarespaceSiteID, req.SquarespaceSiteID)
	patch(&settings.SquareAccessToken, req.SquareAccessToken)
	patch(&settings.SquareLocationID, req.SquareLocationID)
}

func patch(dst **string, src *string) {
	if src == nil {
		return
	}
	trimmed := strings.TrimSpace(*src)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}

func patchedFields(req domain.UpdateRequest) []string {
	fields := make([]string, 0, 6)
	if req.GoogleRefreshToken != nil {
		fields = append(fields, "google_refresh_token")
	}
	if req.GoogleCalendarID != nil {
		fields = append(fields, "google_calendar_id")
	}
	if req.SquarespaceAPIKey != nil {
		fields = append(fields, "squarespace_api_key")
	}
	if req.SquarespaceSiteID != nil {
		fields = append(fields, "squarespace_site_id")
	}
	if req.SquareAccessToken != nil {
		fields = append(fields, "square_access_token")
	}
	if req.SquareLocationID != nil {
		fields = append(fields, "square_location_id")
	}
	return fields
}

func value(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
