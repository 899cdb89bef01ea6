package service

import (
	"sync"
	"time"

	"macd_scanner/internal/models"
)

type trackedState struct {
	state   models.SignalState
	barTime time.Time
}

// TransitionTracker — память состояний по (символ, таймфрейм) на всё время
// жизни процесса. Событие рождается только на переходе медвежье -> бычье.
type TransitionTracker struct {
	mu     sync.Mutex
	states map[models.InstrumentKey]trackedState
}

func NewTransitionTracker() *TransitionTracker {
	return &TransitionTracker{
		states: make(map[models.InstrumentKey]trackedState),
	}
}

// Last — последнее известное состояние ключа (для тай-брейка классификатора).
func (t *TransitionTracker) Last(key models.InstrumentKey) (models.SignalState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[key]
	return st.state, ok
}

// Observe фиксирует новое состояние и возвращает событие, если был переход
// из медвежьей группы в бычью.
//
//   - первое наблюдение ключа: только запоминаем, события нет
//   - тот же barTime повторно: идемпотентно, ничего не меняем (ретрай прохода)
//   - bar старее сохранённого: игнорируем, стейт не переписываем задним числом
func (t *TransitionTracker) Observe(key models.InstrumentKey, next models.SignalState, barTime, now time.Time) (models.TransitionEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.states[key]
	if !ok {
		t.states[key] = trackedState{state: next, barTime: barTime}
		return models.TransitionEvent{}, false
	}

	if !barTime.After(prev.barTime) {
		return models.TransitionEvent{}, false
	}

	t.states[key] = trackedState{state: next, barTime: barTime}

	if prev.state.Bearish() && next.Bullish() {
		return models.TransitionEvent{
			Key:        key,
			Prev:       prev.state,
			Next:       next,
			BarTime:    barTime,
			DetectedAt: now,
		}, true
	}
	return models.TransitionEvent{}, false
}

// Len — сколько ключей уже наблюдали (health/отладка).
func (t *TransitionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}
