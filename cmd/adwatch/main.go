package main

import (
	"github.com/adwatchhq/adwatch/internal/adaccount"
	"github.com/adwatchhq/adwatch/internal/cache"
	"github.com/adwatchhq/adwatch/internal/change"
	"github.com/adwatchhq/adwatch/internal/clock"
	"github.com/adwatchhq/adwatch/internal/config"
	"github.com/adwatchhq/adwatch/internal/detector"
	"github.com/adwatchhq/adwatch/internal/migration"
	"github.com/adwatchhq/adwatch/internal/notification"
	"github.com/adwatchhq/adwatch/internal/observability"
	"github.com/adwatchhq/adwatch/internal/organization"
	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/adwatchhq/adwatch/internal/poller"
	"github.com/adwatchhq/adwatch/internal/providers"
	"github.com/adwatchhq/adwatch/internal/quota"
	"github.com/adwatchhq/adwatch/internal/ratelimit"
	"github.com/adwatchhq/adwatch/internal/server"
	"github.com/adwatchhq/adwatch/internal/snapshot"
	"github.com/adwatchhq/adwatch/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		organization.Module,
		quota.Module,
		adaccount.Module,
		snapshot.Module,
		change.Module,
		detector.Module,
		notification.Module,
		providers.Module,
		platform.Module,
		cache.Module,
		ratelimit.Module,
		poller.Module,

		server.Module,
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
