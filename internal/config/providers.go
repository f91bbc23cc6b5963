package config

import "strings"

const (
	squareProductionURL = "https://connect.squareup.com"
	squareSandboxURL    = "https://connect.squareupsandbox.com"
)

// ProviderDefaults are the process-wide provider credentials used when an
// owner has not configured their own.
type ProviderDefaults struct {
	SquareAccessToken  string `envconfig:"SQUARE_ACCESS_TOKEN"`
	SquareLocationID   string `envconfig:"SQUARE_LOCATION_ID"`
	SquareEnvironment  string `envconfig:"SQUARE_ENVIRONMENT" default:"production"`
	SquareBaseURL      string `envconfig:"SQUARE_BASE_URL"`
	SquareVersion      string `envconfig:"SQUARE_VERSION" default:"2024-01-18"`
	SquarespaceAPIKey  string `envconfig:"SQUARESPACE_API_KEY"`
	SquarespaceBaseURL string `envconfig:"SQUARESPACE_BASE_URL" default:"https://api.squarespace.com"`
	SquarespaceAgent   string `envconfig:"SQUARESPACE_USER_AGENT" default:"Hullbook/1.0"`
	HTTPTimeoutSeconds int    `envconfig:"PROVIDER_HTTP_TIMEOUT_SECONDS" default:"30"`
}

// SquareURL returns the Square API base URL for the configured environment.
func (p ProviderDefaults) SquareURL() string {
	if base := strings.TrimRight(strings.TrimSpace(p.SquareBaseURL), "/"); base != "" {
		return base
	}
	if strings.EqualFold(strings.TrimSpace(p.SquareEnvironment), "sandbox") {
		return squareSandboxURL
	}
	return squareProductionURL
}

// SquarespaceURL returns the Squarespace API base URL.
func (p ProviderDefaults) SquarespaceURL() string {
	if base := strings.TrimRight(strings.TrimSpace(p.SquarespaceBaseURL), "/"); base != "" {
		return base
	}
	return "https://api.squarespace.com"
}
