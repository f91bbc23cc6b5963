package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hullbook/internal/clock"
	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/smallbiznis/hullbook/internal/notification"
	"github.com/smallbiznis/hullbook/internal/observability"
	"github.com/smallbiznis/hullbook/internal/providers"
	"github.com/smallbiznis/hullbook/internal/ratelimit"
	"github.com/smallbiznis/hullbook/internal/scheduler"
	"github.com/smallbiznis/hullbook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Push delivery and the shared redis client for the digest lock.
		providers.Module,
		ratelimit.Module,
		notification.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
