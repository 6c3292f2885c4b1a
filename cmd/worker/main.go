package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/di"
)

// The worker drains the Redis mail queue and runs the maintenance sweep so
// API instances can run with jobs.enabled=false.
func main() {
	app := fx.New(
		di.WorkerModule,
		fx.Invoke(di.PrintBanner),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	)

	app.Run()
}
