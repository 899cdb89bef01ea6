package service

import (
	"sync"
	"time"
)

const defaultCooldown = 45 * time.Minute

// CooldownGate — один таймстемп последней успешной отправки на весь процесс.
// RecordSent зовём только после фактически успешного dispatch: неудачная
// отправка окно не съедает.
type CooldownGate struct {
	mu       sync.Mutex
	window   time.Duration
	lastSent time.Time
	sent     bool
}

func NewCooldownGate(window time.Duration) *CooldownGate {
	if window <= 0 {
		window = defaultCooldown
	}
	return &CooldownGate{window: window}
}

func (g *CooldownGate) CanSend(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.sent {
		return true
	}
	return now.Sub(g.lastSent) >= g.window
}

// Remaining — сколько ждать до открытия окна (для отображения хостом).
func (g *CooldownGate) Remaining(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.sent {
		return 0
	}
	rem := g.window - now.Sub(g.lastSent)
	if rem < 0 {
		return 0
	}
	return rem
}

func (g *CooldownGate) RecordSent(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastSent = now
	g.sent = true
}
