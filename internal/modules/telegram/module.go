package telegram

import (
	"macd_scanner/internal/modules/config"
	scanner "macd_scanner/internal/modules/scanner/service"
	"macd_scanner/internal/modules/telegram/service"
	"macd_scanner/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// Адаптер: при пустом токене работаем в stdout-режиме,
		// сканер об этом знать не должен.
		fx.Provide(
			func(cfg *config.Config) (scanner.BatchNotifier, error) {
				if cfg.Telegram.Token == "" {
					logger.Info("telegram token is empty, alerts go to stdout")
					return service.NewStdout(), nil
				}
				return service.NewTelegram(cfg)
			},
		),
	)
}
