package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/easyvisa/visaflow/internal/config"
	"github.com/easyvisa/visaflow/internal/migration"
	"github.com/easyvisa/visaflow/internal/observability"
	"github.com/easyvisa/visaflow/internal/server"
	"github.com/easyvisa/visaflow/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
