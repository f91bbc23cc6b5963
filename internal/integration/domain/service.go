package domain

import (
	"context"
	"errors"
	"strings"
)

const DefaultCalendarID = "primary"

type Service interface {
	Get(ctx context.Context) (*Status, error)
	Update(ctx context.Context, req UpdateRequest) (*Status, error)
	Resolve(ctx context.Context) (Credentials, error)
}

// Status is the public view of an owner's integrations. Secrets are reported
// only as connected flags.
type Status struct {
	GoogleConnected      bool   `json:"google_connected"`
	GoogleCalendarID     string `json:"google_calendar_id"`
	SquarespaceConnected bool   `json:"squarespace_connected"`
	SquarespaceSiteID    string `json:"squarespace_site_id,omitempty"`
	SquareConnected      bool   `json:"square_connected"`
	SquareLocationID     string `json:"square_location_id,omitempty"`
	SquareUsesDefault    bool   `json:"square_uses_default"`
}

// UpdateRequest is a partial patch: nil leaves a field untouched and an empty
// string clears it.
type UpdateRequest struct {
	GoogleRefreshToken *string `json:"google_refresh_token"`
	GoogleCalendarID   *string `json:"google_calendar_id"`
	SquarespaceAPIKey  *string `json:"squarespace_api_key"`
	SquarespaceSiteID  *string `json:"squarespace_site_id"`
	SquareAccessToken  *string `json:"square_access_token"`
	SquareLocationID   *string `json:"square_location_id"`
}

func (r UpdateRequest) Empty() bool {
	return r.GoogleRefreshToken == nil &&
		r.GoogleCalendarID == nil &&
		r.SquarespaceAPIKey == nil &&
		r.SquarespaceSiteID == nil &&
		r.SquareAccessToken == nil &&
		r.SquareLocationID == nil
}

// Credentials are the effective per-field values after layering owner
// settings over process defaults.
type Credentials struct {
	GoogleRefreshToken string
	GoogleCalendarID   string
	SquarespaceAPIKey  string
	SquarespaceSiteID  string
	SquareAccessToken  string
	SquareLocationID   string
}

func (c Credentials) RequireSquare() error {
	if strings.TrimSpace(c.SquareAccessToken) == "" || strings.TrimSpace(c.SquareLocationID) == "" {
		return ErrSquareNotConfigured
	}
	return nil
}

func (c Credentials) RequireSquarespace() error {
	if strings.TrimSpace(c.SquarespaceAPIKey) == "" {
		return ErrSquarespaceNotConfigured
	}
	return nil
}

func (c Credentials) RequireCalendar() error {
	if strings.TrimSpace(c.GoogleRefreshToken) == "" {
		return ErrCalendarNotConfigured
	}
	return nil
}

var (
	ErrInvalidOwner  = errors.New("invalid_owner")
	ErrEmptyUpdate   = errors.New("empty_update")
	ErrNotConfigured = errors.New("not_configured")

	ErrSquareNotConfigured      = &ConfigurationError{Provider: "square", Message: "square access token and location id are not configured"}
	ErrSquarespaceNotConfigured = &ConfigurationError{Provider: "squarespace", Message: "squarespace api key is not configured"}
	ErrCalendarNotConfigured    = &ConfigurationError{Provider: "google_calendar", Message: "google calendar is not connected"}
)

// ConfigurationError reports a provider whose required credentials are
// missing. It matches ErrNotConfigured under errors.Is.
type ConfigurationError struct {
	Provider string
	Message  string
}

func (e *ConfigurationError) Error() string { return e.Message }

func (e *ConfigurationError) Is(target error) bool { return target == ErrNotConfigured }
