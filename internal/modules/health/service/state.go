package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastScanUnix atomic.Int64 // unix seconds
	lastEvents   atomic.Int64
	lastSkipped  atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// TouchScan — фиксируем итог прохода для healthz.
func (s *State) TouchScan(t time.Time, events, skipped int) {
	s.lastScanUnix.Store(t.Unix())
	s.lastEvents.Store(int64(events))
	s.lastSkipped.Store(int64(skipped))
}

func (s *State) LastScan() time.Time {
	u := s.lastScanUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) LastEvents() int  { return int(s.lastEvents.Load()) }
func (s *State) LastSkipped() int { return int(s.lastSkipped.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
