package runner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"futures_bot/internal/exchange"
	"futures_bot/internal/journal"
	"futures_bot/internal/ledger"
	"futures_bot/internal/models"
	"futures_bot/internal/notify"
	"futures_bot/internal/strategy"
)

// Resolver выбирает направление входа (стратегия или принудительный режим).
type Resolver interface {
	Resolve(ctx context.Context, symbol string, mode models.Mode) strategy.Decision
}

// Controller держит не больше одного цикла сделки на символ.
type Controller struct {
	cfg      Config
	gw       exchange.Gateway
	resolver Resolver
	ledger   *ledger.Ledger
	journal  journal.Journal
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup

	lastTick atomic.Int64 // unix nano последнего тика мониторинга
}

func NewController(
	cfg Config,
	gw exchange.Gateway,
	resolver Resolver,
	l *ledger.Ledger,
	j journal.Journal,
	n notify.Notifier,
	log *zap.Logger,
) *Controller {
	if j == nil {
		j = journal.Nop{}
	}
	if n == nil {
		n = notify.NewStdout(log)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		cfg:      cfg.withDefaults(),
		gw:       gw,
		resolver: resolver,
		ledger:   l,
		journal:  j,
		notifier: n,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start проверяет параметры и запускает цикл в отдельной горутине.
// Второй старт по активному символу: ErrAlreadyRunning.
func (c *Controller) Start(ctx context.Context, req models.StartRequest) (*Session, error) {
	if req.Mode == "" {
		req.Mode = models.ModeAuto
	}
	if err := req.Validate(); err != nil {
		c.notifier.Publish(notify.LogEvent(req.Symbol, "⚠️ Неверные параметры: "+err.Error()))
		return nil, err
	}

	c.mu.Lock()
	if _, running := c.sessions[req.Symbol]; running {
		c.mu.Unlock()
		c.notifier.Publish(notify.LogEvent(req.Symbol, "⏳ Торговля по символу уже идёт"))
		return nil, errors.Wrapf(models.ErrAlreadyRunning, "symbol %s", req.Symbol)
	}
	s := newSession(req)
	c.sessions[req.Symbol] = s
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Info("trade cycle started",
		zap.String("symbol", req.Symbol),
		zap.String("session", s.ID.String()),
		zap.Float64("amount", req.Amount),
		zap.Int("leverage", req.Leverage),
		zap.String("mode", string(req.Mode)))

	go c.work(ctx, s)
	return s, nil
}

// Stop просит цикл закрыть позицию на следующем пробуждении.
func (c *Controller) Stop(symbol string) error {
	c.mu.Lock()
	s, ok := c.sessions[symbol]
	c.mu.Unlock()
	if !ok {
		return errors.Wrapf(models.ErrNotRunning, "symbol %s", symbol)
	}

	s.requestStop()
	c.notifier.Publish(notify.LogEvent(symbol, "🛑 Остановка запрошена"))
	return nil
}

// StopAll останавливает все циклы и ждёт их завершения (или ctx).
func (c *Controller) StopAll(ctx context.Context) error {
	c.mu.Lock()
	for _, s := range c.sessions {
		s.requestStop()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active: символы с активным циклом, по алфавиту.
func (c *Controller) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.sessions))
	for sym := range c.sessions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// State: фаза цикла по символу; без цикла FLAT.
func (c *Controller) State(symbol string) State {
	c.mu.Lock()
	s, ok := c.sessions[symbol]
	c.mu.Unlock()
	if !ok {
		return StateFlat
	}
	return s.State()
}

// Session: активная сессия по символу.
func (c *Controller) Session(symbol string) (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[symbol]
	return s, ok
}

// LastTick: время последнего тика мониторинга; нулевое, если тиков не было.
func (c *Controller) LastTick() time.Time {
	n := c.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (c *Controller) work(ctx context.Context, s *Session) {
	defer c.wg.Done()
	defer close(s.done)
	defer func() {
		c.mu.Lock()
		if c.sessions[s.Symbol()] == s {
			delete(c.sessions, s.Symbol())
		}
		c.mu.Unlock()
	}()

	res, err := c.run(ctx, s)
	if err != nil {
		if errors.Is(err, models.ErrExchange) {
			c.setState(s, StateError)
		}
		c.log.Error("trade cycle aborted",
			zap.String("symbol", s.Symbol()),
			zap.String("session", s.ID.String()),
			zap.Error(err))
		c.notifier.Publish(notify.LogEvent(s.Symbol(), "❗️ Цикл прерван: "+err.Error()))
	}
	s.finish(err, res)
	c.setState(s, StateFlat)
}

func (c *Controller) setState(s *Session, st State) {
	s.setState(st)
	c.log.Debug("state", zap.String("symbol", s.Symbol()), zap.String("state", string(st)))
	c.notifier.Publish(notify.Event{Kind: notify.KindState, Symbol: s.Symbol(), State: string(st), At: c.now()})
}
