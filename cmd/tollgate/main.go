package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tollgate/internal/clock"
	"github.com/smallbiznis/tollgate/internal/config"
	"github.com/smallbiznis/tollgate/internal/migration"
	"github.com/smallbiznis/tollgate/internal/observability"
	"github.com/smallbiznis/tollgate/internal/server"
	"github.com/smallbiznis/tollgate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
