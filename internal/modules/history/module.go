package history

import (
	"context"
	"fmt"

	"macd_scanner/internal/modules/config"
	"macd_scanner/internal/modules/history/service"
	scanner "macd_scanner/internal/modules/scanner/service"
	"macd_scanner/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("history",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					// база опциональна: пустой DSN — история выключена
					return nil, nil
				}
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
		),

		fx.Provide(
			service.NewRecorder,
		),

		// Адаптер: *service.Recorder -> scanner.AlertRecorder
		fx.Provide(
			func(r *service.Recorder) scanner.AlertRecorder {
				return r
			},
		),

		fx.Invoke(func(lc fx.Lifecycle, r *service.Recorder) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return r.EnsureSchema(ctx)
				},
			})
		}),
	)
}
