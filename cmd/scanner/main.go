package main

import (
	"context"
	"log"

	"macd_scanner/internal/modules/config"
	"macd_scanner/internal/modules/health"
	"macd_scanner/internal/modules/history"
	"macd_scanner/internal/modules/marketdata"
	"macd_scanner/internal/modules/scanner"
	"macd_scanner/internal/modules/telegram"
	"macd_scanner/pkg/logger"
	"macd_scanner/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		marketdata.Module(),
		telegram.Module(),
		history.Module(),
		scanner.Module(),
		health.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil
	}

	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
