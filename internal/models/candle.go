package models

import (
	"math"
	"time"
)

// Timeframe — разрешение серии. Вселенная сканера фиксирована: 4h и 1d.
type Timeframe string

const (
	TF4H Timeframe = "4h"
	TF1D Timeframe = "1d"
)

// Label — как таймфрейм показываем в алертах ("4H" / "1D").
func (tf Timeframe) Label() string {
	switch tf {
	case TF4H:
		return "4H"
	case TF1D:
		return "1D"
	default:
		return string(tf)
	}
}

// Candle — один бар цены от провайдера. Читаем как есть, не мутируем.
type Candle struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid — все значения конечны, ts задан.
func (c Candle) Valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !c.Ts.IsZero()
}

// InstrumentKey — единица независимого трекинга: символ + таймфрейм.
type InstrumentKey struct {
	Symbol    string
	Timeframe Timeframe
}

func (k InstrumentKey) String() string {
	return k.Symbol + ":" + string(k.Timeframe)
}
