package marketdata

import (
	"macd_scanner/internal/modules/marketdata/service"
	scanner "macd_scanner/internal/modules/scanner/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			service.NewClient, // *service.Client
		),

		// Адаптер: *service.Client -> scanner.BarProvider
		fx.Provide(
			func(c *service.Client) scanner.BarProvider {
				return c
			},
		),
	)
}
