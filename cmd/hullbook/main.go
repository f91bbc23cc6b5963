package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/analytics"
	"github.com/smallbiznis/hullbook/internal/booking"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/completion"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/integration"
	"github.com/smallbiznis/hullbook/internal/invoicing"
	"github.com/smallbiznis/hullbook/internal/mapping"
	"github.com/smallbiznis/hullbook/internal/migration"
	"github.com/smallbiznis/hullbook/internal/notification"
	"github.com/smallbiznis/hullbook/internal/observability"
	"github.com/smallbiznis/hullbook/internal/providers"
	"github.com/smallbiznis/hullbook/internal/ratelimit"
	"github.com/smallbiznis/hullbook/internal/scheduler"
	"github.com/smallbiznis/hullbook/internal/server"
	"github.com/smallbiznis/hullbook/pkg/db"
	"go.uber.org/fx"
)

// Single binary: admin API, daily digest and schema migrations.
func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		providers.Module,
		ratelimit.Module,

		// Functional Domains
		integration.Module,
		booking.Module,
		completion.Module,
		mapping.Module,
		invoicing.Module,
		analytics.Module,
		notification.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
