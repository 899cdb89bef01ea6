package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"macd_scanner/internal/models"
	appcfg "macd_scanner/internal/modules/config"
	"macd_scanner/internal/modules/health/service"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *appcfg.Config) Config {
	if cfg.Service.AdminPort > 0 {
		return Config{Addr: fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.AdminPort)}
	}
	return Config{Addr: ":8080"}
}

func NewMux(state *service.State, feed *service.Feed) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: хотя бы один проход сканера завершён
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"ready":       state.Ready(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
			"lastEvents":  state.LastEvents(),
			"lastSkipped": state.LastSkipped(),
			"lastScanUnix": func() int64 {
				t := state.LastScan()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	// живой фид отчётов для дашборда
	mux.HandleFunc("/ws", feed.Handle)

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			service.NewFeed,
			NewConfig,
			NewMux,
		),
		fx.Invoke(RunHTTP),

		// отчёты сканера -> state + ws-фид
		fx.Invoke(func(lc fx.Lifecycle, state *service.State, feed *service.Feed, reports <-chan models.ScanReport, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						for {
							select {
							case <-ctx.Done():
								return
							case rep, ok := <-reports:
								if !ok {
									return
								}
								state.SetReady(true)
								state.TouchScan(rep.FinishedAt, len(rep.Events), rep.Skipped())
								feed.Broadcast(rep)
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
