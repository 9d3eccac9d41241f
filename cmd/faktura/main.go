package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/faktura/internal/config"
	"github.com/smallbiznis/faktura/internal/migration"
	"github.com/smallbiznis/faktura/internal/observability"
	"github.com/smallbiznis/faktura/internal/server"
	"github.com/smallbiznis/faktura/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
