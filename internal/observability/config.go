package observability

import (
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/smallbiznis/hullbook/internal/config"
)

// Config is what the logger, tracer and metrics need to label hullbook's
// telemetry.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// env holds the OTEL_* and LOG_* overrides. Empty values fall back to the
// application config.
type env struct {
	DeploymentEnv  string  `envconfig:"DEPLOYMENT_ENV"`
	ServiceVersion string  `envconfig:"SERVICE_VERSION"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string  `envconfig:"LOG_FORMAT" default:"json"`
	OtelEnabled    string  `envconfig:"OTEL_ENABLED"`
	OtlpEndpoint   string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtlpProtocol   string  `envconfig:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc"`
	TracesProtocol string  `envconfig:"OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"`
	SamplingRatio  float64 `envconfig:"OTEL_SAMPLING_RATIO" default:"0.1"`
}

// LoadConfig layers the observability environment over the application
// config. Tracing defaults to on only in production.
func LoadConfig(cfg config.Config) (Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return Config{}, err
	}

	out := Config{
		ServiceName:          firstNonEmpty(cfg.AppName, "hullbook"),
		Environment:          firstNonEmpty(e.DeploymentEnv, cfg.Environment),
		Version:              firstNonEmpty(e.ServiceVersion, cfg.AppVersion),
		LogLevel:             strings.ToLower(strings.TrimSpace(e.LogLevel)),
		LogFormat:            strings.ToLower(strings.TrimSpace(e.LogFormat)),
		OtelEnabled:          cfg.IsProduction(),
		OtelExporterEndpoint: firstNonEmpty(e.OtlpEndpoint, cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(firstNonEmpty(e.TracesProtocol, e.OtlpProtocol)),
		OtelSamplingRatio:    e.SamplingRatio,
	}
	if enabled, err := strconv.ParseBool(strings.TrimSpace(e.OtelEnabled)); err == nil {
		out.OtelEnabled = enabled
	}
	if out.OtelSamplingRatio < 0 || out.OtelSamplingRatio > 1 {
		out.OtelSamplingRatio = 0.1
	}
	return out, nil
}

// Debug turns on development logging for debug level or a dev-like
// environment.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
