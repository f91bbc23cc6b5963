// Package push delivers short notifications to registered devices.
package push

import (
	"context"

	"go.uber.org/zap"
)

type Provider interface {
	Send(ctx context.Context, deviceTokens []string, message string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, deviceTokens []string, message string) error {
	return nil
}

// LogProvider records notifications instead of delivering them. It is the
// default until a delivery service is configured.
type LogProvider struct {
	log *zap.Logger
}

func NewLogProvider(log *zap.Logger) *LogProvider {
	return &LogProvider{log: log.Named("push")}
}

func (p *LogProvider) Send(ctx context.Context, deviceTokens []string, message string) error {
	p.log.Info("push notification",
		zap.Int("devices", len(deviceTokens)),
		zap.String("message", message),
	)
	return nil
}
