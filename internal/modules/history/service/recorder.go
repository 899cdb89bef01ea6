package service

import (
	"context"

	"macd_scanner/internal/models"
	"macd_scanner/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS macd_alerts (
	id          BIGSERIAL PRIMARY KEY,
	symbol      TEXT        NOT NULL,
	timeframe   TEXT        NOT NULL,
	prev_state  TEXT        NOT NULL,
	next_state  TEXT        NOT NULL,
	bar_time    TIMESTAMPTZ NOT NULL,
	detected_at TIMESTAMPTZ NOT NULL
)`

// Recorder — история отправленных алертов в Postgres.
// Без DSN (tm == nil) превращается в no-op: сканер обязан работать и без базы.
type Recorder struct {
	tm *db.PgTxManager
}

func NewRecorder(tm *db.PgTxManager) *Recorder {
	return &Recorder{tm: tm}
}

func (r *Recorder) Enabled() bool { return r != nil && r.tm != nil }

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	return r.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, schema)
		return errors.Wrap(err, "create macd_alerts")
	})
}

func (r *Recorder) Record(ctx context.Context, events []models.TransitionEvent) error {
	if !r.Enabled() || len(events) == 0 {
		return nil
	}
	return r.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for _, ev := range events {
			_, err := tx.Exec(ctxTx,
				`INSERT INTO macd_alerts (symbol, timeframe, prev_state, next_state, bar_time, detected_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				ev.Key.Symbol, string(ev.Key.Timeframe),
				string(ev.Prev), string(ev.Next),
				ev.BarTime, ev.DetectedAt,
			)
			if err != nil {
				return errors.Wrap(err, "insert alert")
			}
		}
		return nil
	})
}
