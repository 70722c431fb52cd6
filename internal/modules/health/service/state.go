package service

import (
	"sync/atomic"
	"time"
)

// Trading: что health читает у контроллера.
type Trading interface {
	Active() []string
	LastTick() time.Time
}

type State struct {
	ready     atomic.Bool
	startedAt time.Time
	trading   Trading

	clients atomic.Int64 // подключённые клиенты дашборда
}

func NewState(trading Trading) *State {
	s := &State{startedAt: time.Now(), trading: trading}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) ClientConnected()    { s.clients.Add(1) }
func (s *State) ClientDisconnected() { s.clients.Add(-1) }
func (s *State) Clients() int64      { return s.clients.Load() }

func (s *State) LastTick() time.Time {
	if s.trading == nil {
		return time.Time{}
	}
	return s.trading.LastTick()
}

func (s *State) Active() []string {
	if s.trading == nil {
		return nil
	}
	return s.trading.Active()
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
