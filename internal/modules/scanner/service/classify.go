package service

import "macd_scanner/internal/models"

// Classify — чистая функция (macd, signal) -> одно из шести состояний.
// Порядок проверок сверху вниз обязателен: условия сильных состояний
// пересекаются с общими, приоритет делает их взаимоисключающими.
//
// Точное равенство macd == signal: несём прошлое состояние, если оно есть;
// без прошлого — SELL. Это явная политика тай-брейка, не случайность.
func Classify(macd, signal float64, prev models.SignalState, hasPrev bool) models.SignalState {
	switch {
	case macd > signal:
		switch {
		case macd > 0 && signal > 0:
			return models.StateStrongBuy
		case macd < 0:
			return models.StateWeakBuy
		default:
			return models.StateBuy
		}
	case macd < signal:
		switch {
		case macd < 0 && signal < 0:
			return models.StateStrongSell
		case macd > 0:
			return models.StateWeakSell
		default:
			return models.StateSell
		}
	default:
		if hasPrev {
			return prev
		}
		return models.StateSell
	}
}
