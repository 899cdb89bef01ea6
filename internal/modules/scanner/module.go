package scanner

import (
	"context"
	"time"

	"macd_scanner/internal/models"
	"macd_scanner/internal/modules/config"
	"macd_scanner/internal/modules/scanner/service"
	"macd_scanner/pkg/logger"

	"go.uber.org/fx"
)

func newReportsChan() chan models.ScanReport {
	return make(chan models.ScanReport, 16)
}
func asSendOnlyReports(ch chan models.ScanReport) chan<- models.ScanReport { return ch }
func asRecvOnlyReports(ch chan models.ScanReport) <-chan models.ScanReport { return ch }

func Module() fx.Option {
	return fx.Module("scanner",
		fx.Provide(
			newReportsChan,
			asSendOnlyReports,
			asRecvOnlyReports,
			service.NewScanner, // *service.Scanner
		),

		// Шедулер: немедленный первый проход, дальше по тикеру.
		// Ядро само цикла не держит — только re-entrant RunScanPass.
		fx.Invoke(func(lc fx.Lifecycle, s *service.Scanner, cfg *config.Config, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("scan loop started, interval=%s", cfg.ScanInterval)

						if _, err := s.RunScanPass(ctx, time.Now()); err != nil {
							logger.Error("scan pass: %v", err)
						}

						ticker := time.NewTicker(cfg.ScanInterval)
						defer ticker.Stop()
						for {
							select {
							case <-ctx.Done():
								logger.Info("scan loop stopped")
								return
							case <-ticker.C:
								if _, err := s.RunScanPass(ctx, time.Now()); err != nil {
									logger.Error("scan pass: %v", err)
								}
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
