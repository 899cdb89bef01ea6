package service

import (
	"testing"
	"time"

	"macd_scanner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackerKey = models.InstrumentKey{Symbol: "RELIANCE.NS", Timeframe: models.TF4H}

func TestTrackerFirstObservationSilent(t *testing.T) {
	tr := NewTransitionTracker()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// даже бычье состояние при первом наблюдении не рождает событие
	_, fired := tr.Observe(trackerKey, models.StateStrongBuy, now, now)
	assert.False(t, fired)

	st, ok := tr.Last(trackerKey)
	require.True(t, ok)
	assert.Equal(t, models.StateStrongBuy, st)
	assert.Equal(t, 1, tr.Len())
}

func TestTrackerTransitionMatrix(t *testing.T) {
	// все 36 пар (prev, next): событие строго на переходе медвежье -> бычье
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, prev := range models.AllStates {
		for _, next := range models.AllStates {
			tr := NewTransitionTracker()
			tr.Observe(trackerKey, prev, base, base)

			ev, fired := tr.Observe(trackerKey, next, base.Add(4*time.Hour), base.Add(4*time.Hour))
			want := prev.Bearish() && next.Bullish()
			assert.Equal(t, want, fired, "%s -> %s", prev, next)

			if fired {
				assert.Equal(t, trackerKey, ev.Key)
				assert.Equal(t, prev, ev.Prev)
				assert.Equal(t, next, ev.Next)
				assert.True(t, ev.BarTime.Equal(base.Add(4*time.Hour)))
			}

			st, ok := tr.Last(trackerKey)
			require.True(t, ok)
			assert.Equal(t, next, st, "стейт всегда переписывается на свежем баре")
		}
	}
}

func TestTrackerIdempotentOnSameBar(t *testing.T) {
	tr := NewTransitionTracker()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(4 * time.Hour)

	tr.Observe(trackerKey, models.StateSell, t0, t0)
	_, fired := tr.Observe(trackerKey, models.StateStrongBuy, t1, t1)
	require.True(t, fired)

	// ретрай того же бара: события нет, стейт не трогаем
	_, fired = tr.Observe(trackerKey, models.StateStrongBuy, t1, t1.Add(time.Minute))
	assert.False(t, fired)

	// и даже с другим состоянием на том же barTime — no-op
	_, fired = tr.Observe(trackerKey, models.StateSell, t1, t1.Add(2*time.Minute))
	assert.False(t, fired)

	st, _ := tr.Last(trackerKey)
	assert.Equal(t, models.StateStrongBuy, st)
}

func TestTrackerIgnoresStaleBar(t *testing.T) {
	tr := NewTransitionTracker()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(4 * time.Hour)

	tr.Observe(trackerKey, models.StateBuy, t1, t1)

	// бар старее сохранённого — не переписываем задним числом
	_, fired := tr.Observe(trackerKey, models.StateSell, t0, t1.Add(time.Minute))
	assert.False(t, fired)

	st, _ := tr.Last(trackerKey)
	assert.Equal(t, models.StateBuy, st)
}

func TestTrackerKeysIndependent(t *testing.T) {
	tr := NewTransitionTracker()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(24 * time.Hour)

	key4h := models.InstrumentKey{Symbol: "TCS.NS", Timeframe: models.TF4H}
	key1d := models.InstrumentKey{Symbol: "TCS.NS", Timeframe: models.TF1D}

	tr.Observe(key4h, models.StateSell, t0, t0)
	tr.Observe(key1d, models.StateBuy, t0, t0)

	// переход на 4h не зависит от состояния 1d того же символа
	_, fired := tr.Observe(key4h, models.StateWeakBuy, t1, t1)
	assert.True(t, fired)
	_, fired = tr.Observe(key1d, models.StateStrongBuy, t1, t1)
	assert.False(t, fired)
	assert.Equal(t, 2, tr.Len())
}
