package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/swiftdrop/dispatch/internal/clock"
	"github.com/swiftdrop/dispatch/internal/commission"
	"github.com/swiftdrop/dispatch/internal/config"
	"github.com/swiftdrop/dispatch/internal/holiday"
	"github.com/swiftdrop/dispatch/internal/migration"
	"github.com/swiftdrop/dispatch/internal/payout"
	"github.com/swiftdrop/dispatch/internal/pricing"
	"github.com/swiftdrop/dispatch/internal/ratelimit"
	"github.com/swiftdrop/dispatch/internal/server"
	"github.com/swiftdrop/dispatch/pkg/db"
	pkglog "github.com/swiftdrop/dispatch/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		pkglog.Module,
		db.Module,
		clock.Module,
		holiday.Module,
		fx.Provide(RegisterSnowflake),
		migration.Module,
		ratelimit.Module,

		// Functional domains
		pricing.Module,
		commission.Module,
		payout.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}
	return node
}
