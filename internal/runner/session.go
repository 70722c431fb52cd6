package runner

import (
	"sync"

	"github.com/google/uuid"

	"futures_bot/internal/models"
)

// Session: один запуск цикла по символу.
type Session struct {
	ID      uuid.UUID
	Request models.StartRequest

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu       sync.RWMutex
	state    State
	pos      *models.OpenPosition
	lastMark float64
	err      error
	result   *Result
}

func newSession(req models.StartRequest) *Session {
	return &Session{
		ID:      uuid.New(),
		Request: req,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		state:   StateFlat,
	}
}

func (s *Session) Symbol() string { return s.Request.Symbol }

// Done закрывается, когда цикл вернулся во FLAT.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err: чем закончился цикл; nil для HOLD и для закрытой сделки.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Position: открытая позиция, если есть.
func (s *Session) Position() (models.OpenPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pos == nil {
		return models.OpenPosition{}, false
	}
	return *s.pos, true
}

// Result: итог, если сделка была закрыта и записана.
func (s *Session) Result() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// requestStop: идемпотентно.
func (s *Session) requestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) setPosition(p *models.OpenPosition) {
	s.mu.Lock()
	s.pos = p
	s.mu.Unlock()
}

func (s *Session) setMark(px float64) {
	s.mu.Lock()
	s.lastMark = px
	s.mu.Unlock()
}

func (s *Session) mark() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMark
}

func (s *Session) finish(err error, res *Result) {
	s.mu.Lock()
	s.err = err
	if res != nil {
		s.result = res
	}
	s.mu.Unlock()
}
