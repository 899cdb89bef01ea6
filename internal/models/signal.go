package models

import "time"

// SignalState — шесть состояний MACD относительно сигнальной линии.
// Три медвежьих, три бычьих. Порядок важен только для читаемости.
type SignalState string

const (
	StateStrongSell SignalState = "STRONG SELL"
	StateSell       SignalState = "SELL"
	StateWeakSell   SignalState = "WEAK SELL"
	StateWeakBuy    SignalState = "WEAK BUY"
	StateBuy        SignalState = "BUY"
	StateStrongBuy  SignalState = "STRONG BUY"
)

// AllStates — для исчерпывающих проверок в тестах и валидации.
var AllStates = []SignalState{
	StateStrongSell, StateSell, StateWeakSell,
	StateWeakBuy, StateBuy, StateStrongBuy,
}

func (s SignalState) Bearish() bool {
	return s == StateStrongSell || s == StateSell || s == StateWeakSell
}

func (s SignalState) Bullish() bool {
	return s == StateWeakBuy || s == StateBuy || s == StateStrongBuy
}

// MACDResult — значения осциллятора по одному бару.
type MACDResult struct {
	MACD    float64
	Signal  float64
	Hist    float64
	BarTime time.Time
}

// TransitionEvent — переход медвежье -> бычье по одному инструменту.
// Создаётся только в этом направлении: алертим покупки, не продажи.
type TransitionEvent struct {
	Key        InstrumentKey
	Prev       SignalState
	Next       SignalState
	BarTime    time.Time
	DetectedAt time.Time
}
