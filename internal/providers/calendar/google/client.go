// Package google reads bookings from Google Calendar using an owner's stored
// refresh token.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	bookingdomain "github.com/smallbiznis/hullbook/internal/booking/domain"
	"github.com/smallbiznis/hullbook/internal/config"
	integrationdomain "github.com/smallbiznis/hullbook/internal/integration/domain"
	"github.com/smallbiznis/hullbook/pkg/upstream"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	providerName = "google_calendar"
	pageSize     = 250
	dateLayout   = "2006-01-02"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides the Calendar API base URL; used by tests.
	Endpoint string
	// TokenURL overrides the OAuth token endpoint; used by tests.
	TokenURL string
	Timeout  time.Duration
}

// Client implements bookingdomain.Calendar.
type Client struct {
	cfg   Config
	oauth *oauth2.Config
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	endpoint := googleoauth.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{calendar.CalendarReadonlyScope},
		},
	}
}

func NewFromConfig(cfg config.Config) bookingdomain.Calendar {
	return New(Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Timeout:      time.Duration(cfg.Providers.HTTPTimeoutSeconds) * time.Second,
	})
}

// Open exchanges the owner's refresh token once and returns a session that
// reuses the resulting access token for every page.
func (c *Client) Open(ctx context.Context, creds integrationdomain.Credentials) (bookingdomain.CalendarSession, error) {
	if err := creds.RequireCalendar(); err != nil {
		return nil, err
	}

	svc, err := c.service(ctx, creds.GoogleRefreshToken)
	if err != nil {
		return nil, err
	}
	return &session{svc: svc}, nil
}

func (c *Client) service(ctx context.Context, refreshToken string) (*calendar.Service, error) {
	base := &http.Client{Timeout: c.cfg.Timeout}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	source := c.oauth.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: refreshToken})

	opts := []option.ClientOption{
		option.WithHTTPClient(&http.Client{
			Timeout:   c.cfg.Timeout,
			Transport: &oauth2.Transport{Source: source, Base: http.DefaultTransport},
		}),
	}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	return calendar.NewService(ctx, opts...)
}

type session struct {
	svc *calendar.Service
}

func (s *session) ListEvents(ctx context.Context, query bookingdomain.EventQuery) (*bookingdomain.EventPage, error) {
	calendarID := strings.TrimSpace(query.CalendarID)
	if calendarID == "" {
		calendarID = integrationdomain.DefaultCalendarID
	}

	call := s.svc.Events.List(calendarID).
		TimeMin(query.TimeMin.UTC().Format(time.RFC3339)).
		TimeMax(query.TimeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(pageSize).
		Context(ctx)
	if query.PageToken != "" {
		call = call.PageToken(query.PageToken)
	}

	events, err := call.Do()
	if err != nil {
		return nil, translateError(err)
	}

	page := &bookingdomain.EventPage{NextPageToken: events.NextPageToken}
	for _, item := range events.Items {
		event, ok := toEvent(item)
		if !ok {
			page.Skipped++
			continue
		}
		page.Events = append(page.Events, event)
	}
	return page, nil
}

func toEvent(item *calendar.Event) (bookingdomain.Event, bool) {
	if item == nil || item.Start == nil {
		return bookingdomain.Event{}, false
	}
	start, ok := parseEventTime(item.Start)
	if !ok {
		return bookingdomain.Event{}, false
	}

	event := bookingdomain.Event{
		ExternalID: item.Id,
		Title:      strings.TrimSpace(item.Summary),
		StartAt:    start,
	}
	if end, ok := parseEventTime(item.End); ok {
		event.EndAt = &end
	}
	if raw, err := json.Marshal(item); err == nil {
		event.Raw = raw
	}
	return event, true
}

func parseEventTime(value *calendar.EventDateTime) (time.Time, bool) {
	if value == nil {
		return time.Time{}, false
	}
	if value.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, value.DateTime)
		return parsed, err == nil
	}
	if value.Date != "" {
		parsed, err := time.Parse(dateLayout, value.Date)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func translateError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return upstream.New(providerName, apiErr.Code, apiErr.Message)
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		status := http.StatusBadGateway
		if tokenErr.Response != nil {
			status = tokenErr.Response.StatusCode
		}
		detail := tokenErr.ErrorDescription
		if detail == "" {
			detail = tokenErr.ErrorCode
		}
		return upstream.New(providerName, status, detail)
	}
	return err
}
