package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"futures_bot/internal/ledger"
	"futures_bot/internal/models"
	"futures_bot/internal/notify"
	"futures_bot/internal/runner"
)

// KindView: событие только для подписчиков: вид поменялся по команде.
const KindView notify.Kind = "view"

// Trader: то, что презентер умеет просить у контроллера.
type Trader interface {
	Start(ctx context.Context, req models.StartRequest) (*runner.Session, error)
	Stop(symbol string) error
	Active() []string
}

// Options: настройки отображения.
type Options struct {
	Symbols  []string
	LogLines int
	Location *time.Location
}

// Presenter владеет состоянием отображения. Торговый цикл пишет только
// через канал событий, фронты читают View() и подписки.
type Presenter struct {
	trader Trader
	ledger *ledger.Ledger
	events <-chan notify.Event
	log    *zap.Logger
	now    func() time.Time

	symbols  []string
	maxLines int
	loc      *time.Location

	mu    sync.RWMutex
	view  View
	month ledger.Month

	subsMu sync.RWMutex
	subs   []func(View, notify.Event)
}

func New(trader Trader, l *ledger.Ledger, events <-chan notify.Event, opts Options, log *zap.Logger) *Presenter {
	if opts.LogLines <= 0 {
		opts.LogLines = 200
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := &Presenter{
		trader:   trader,
		ledger:   l,
		events:   events,
		log:      log,
		now:      time.Now,
		symbols:  append([]string(nil), opts.Symbols...),
		maxLines: opts.LogLines,
		loc:      opts.Location,
	}
	p.view = View{
		BalanceText: "Balance: -",
		States:      make(map[string]string),
		Ticks:       make(map[string]Tick),
		Symbols:     append([]string(nil), opts.Symbols...),
	}
	p.month = ledger.MonthOf(p.now(), p.loc)
	p.refreshLedgerLocked()
	return p
}

// View: копия текущего вида.
func (p *Presenter) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view.clone()
}

// Subscribe: fn зовётся после каждого применённого события из горутины Run.
// fn не должен блокировать надолго.
func (p *Presenter) Subscribe(fn func(View, notify.Event)) {
	p.subsMu.Lock()
	p.subs = append(p.subs, fn)
	p.subsMu.Unlock()
}

// Run читает события до закрытия канала или отмены ctx.
func (p *Presenter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.events:
			if !ok {
				return
			}
			p.Apply(ev)
		}
	}
}

// Apply применяет событие к виду и оповещает подписчиков.
func (p *Presenter) Apply(ev notify.Event) {
	p.mu.Lock()
	switch ev.Kind {
	case notify.KindLog:
		p.appendLineLocked(ev)
	case notify.KindBalance:
		p.view.BalanceText = BalanceText(ev.Balance)
	case notify.KindLedger:
		p.refreshLedgerLocked()
	case notify.KindState:
		p.view.States[ev.Symbol] = ev.State
		if ev.State == string(runner.StateFlat) {
			delete(p.view.Ticks, ev.Symbol)
		}
	case notify.KindTick:
		p.view.Ticks[ev.Symbol] = Tick{Price: ev.Price, PnL: ev.PnL, At: ev.At}
	}
	v := p.view.clone()
	p.mu.Unlock()

	p.broadcast(v, ev)
}

// Handle выполняет команду оператора. Ошибка также уходит строкой в лог.
func (p *Presenter) Handle(ctx context.Context, cmd Command) error {
	var err error
	switch c := cmd.(type) {
	case StartTrading:
		err = p.start(ctx, c)
	case StopTrading:
		err = p.stop(c)
	case NavigateMonth:
		p.navigate(c.Direction)
	default:
		err = errors.Wrapf(models.ErrInvalidParameter, "unsupported command %T", cmd)
	}
	if err != nil {
		p.Apply(notify.LogEvent("", "⚠️ "+err.Error()))
	}
	return err
}

func (p *Presenter) start(ctx context.Context, c StartTrading) error {
	req, err := models.ParseStartRequest(c.Symbol, c.Amount, c.Leverage, c.Mode)
	if err != nil {
		return err
	}
	if !p.knownSymbol(req.Symbol) {
		return errors.Wrapf(models.ErrInvalidParameter, "unknown symbol %s", req.Symbol)
	}
	// цикл живёт дольше запроса, его гасит Stop/StopAll
	if _, err := p.trader.Start(context.WithoutCancel(ctx), req); err != nil {
		return err
	}
	p.Apply(notify.LogEvent(req.Symbol, fmt.Sprintf("▶️ Старт: %.2f USDT, x%d, режим %s", req.Amount, req.Leverage, req.Mode)))
	return nil
}

func (p *Presenter) stop(c StopTrading) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Symbol))
	if symbol != "" {
		return p.trader.Stop(symbol)
	}

	active := p.trader.Active()
	if len(active) == 0 {
		return errors.Wrap(models.ErrNotRunning, "no active symbols")
	}
	for _, s := range active {
		// символ мог успеть закрыться сам
		if err := p.trader.Stop(s); err != nil && !errors.Is(err, models.ErrNotRunning) {
			return err
		}
	}
	return nil
}

func (p *Presenter) navigate(dir int) {
	p.mu.Lock()
	switch {
	case dir < 0:
		p.month = p.month.Prev()
	case dir > 0:
		p.month = p.month.Next()
	default:
		p.month = ledger.MonthOf(p.now(), p.loc)
	}
	p.refreshLedgerLocked()
	v := p.view.clone()
	p.mu.Unlock()

	p.broadcast(v, notify.Event{Kind: KindView, At: p.now()})
}

func (p *Presenter) knownSymbol(s string) bool {
	if len(p.symbols) == 0 {
		return true
	}
	for _, known := range p.symbols {
		if known == s {
			return true
		}
	}
	return false
}

func (p *Presenter) appendLineLocked(ev notify.Event) {
	at := ev.At
	if at.IsZero() {
		at = p.now()
	}
	line := at.In(p.loc).Format("15:04:05") + " "
	if ev.Symbol != "" {
		line += "[" + ev.Symbol + "] "
	}
	line += ev.Text

	p.view.LogLines = append(p.view.LogLines, line)
	if over := len(p.view.LogLines) - p.maxLines; over > 0 {
		p.view.LogLines = append([]string(nil), p.view.LogLines[over:]...)
	}
}

func (p *Presenter) refreshLedgerLocked() {
	snap := p.ledger.Snapshot()
	p.view.CumulativeReturnText = CumulativeText(snap.Cumulative)
	p.view.Year = p.month.Year
	p.view.Month = p.month.Month
	p.view.Calendar = ledger.Calendar(snap, p.month)
}

func (p *Presenter) broadcast(v View, ev notify.Event) {
	p.subsMu.RLock()
	subs := append(([]func(View, notify.Event))(nil), p.subs...)
	p.subsMu.RUnlock()

	for _, fn := range subs {
		fn(v, ev)
	}
}
