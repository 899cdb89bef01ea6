package service

import (
	"fmt"
	"math"

	"macd_scanner/internal/models"

	"github.com/pkg/errors"
)

// MACDEngine — расчёт осциллятора по одной серии закрытий.
// Формула фиксирована: результаты сравниваются между перезапусками,
// поэтому никакой самодеятельности с сидированием.
type MACDEngine struct {
	fast   int
	slow   int
	signal int
}

func NewMACDEngine(fast, slow, signal int) (*MACDEngine, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, fmt.Errorf("macd periods must be positive: fast=%d slow=%d signal=%d", fast, slow, signal)
	}
	if fast >= slow {
		return nil, fmt.Errorf("fast period %d must be less than slow period %d", fast, slow)
	}
	return &MACDEngine{fast: fast, slow: slow, signal: signal}, nil
}

// MinBars — минимум закрытий, после которого появляется первый результат.
func (e *MACDEngine) MinBars() int { return e.slow + e.signal - 1 }

// Compute возвращает результат на каждый бар начиная с индекса slow+signal-2.
// Меньше истории — ErrInsufficientHistory. NaN/Inf в закрытии —
// ErrMalformedBar: лучше пропустить серию, чем протащить NaN в стейт.
func (e *MACDEngine) Compute(bars []models.Candle) ([]models.MACDResult, error) {
	if len(bars) < e.MinBars() {
		return nil, errors.Wrapf(models.ErrInsufficientHistory, "%d bars, need %d", len(bars), e.MinBars())
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			return nil, errors.Wrapf(models.ErrMalformedBar, "non-finite close at index %d", i)
		}
		closes[i] = b.Close
	}

	fastEMA := emaSeries(closes, e.fast)
	slowEMA := emaSeries(closes, e.slow)

	// MACD-линия определена там, где определены обе EMA: t >= slow-1
	macd := make([]float64, len(closes)-(e.slow-1))
	for i := range macd {
		t := e.slow - 1 + i
		macd[i] = fastEMA[t] - slowEMA[t]
	}

	// сигнальная — EMA от самой MACD-линии, то же сидирование
	sig := emaSeries(macd, e.signal)

	out := make([]models.MACDResult, 0, len(macd)-(e.signal-1))
	for i := e.signal - 1; i < len(macd); i++ {
		t := e.slow - 1 + i
		out = append(out, models.MACDResult{
			MACD:    macd[i],
			Signal:  sig[i],
			Hist:    macd[i] - sig[i],
			BarTime: bars[t].Ts,
		})
	}
	return out, nil
}

// Latest — значения по последнему бару серии.
func (e *MACDEngine) Latest(bars []models.Candle) (models.MACDResult, error) {
	res, err := e.Compute(bars)
	if err != nil {
		return models.MACDResult{}, err
	}
	return res[len(res)-1], nil
}

// emaSeries — EMA с сидированием простым средним первых period значений
// (на индексе period-1), дальше рекуррентно с k = 2/(period+1).
// Значения до period-1 не определены, наружу не отдаются.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / (float64(period) + 1)
	for t := period; t < len(values); t++ {
		out[t] = values[t]*k + out[t-1]*(1-k)
	}
	return out
}
