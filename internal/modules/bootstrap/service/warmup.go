package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"futures_bot/internal/models"
	"futures_bot/internal/notify"
	"futures_bot/internal/strategy"
)

// Balance: источник баланса USDT.
type Balance interface {
	USDTBalance(ctx context.Context) (float64, error)
}

// Evaluator: превью сигнала по символу.
type Evaluator interface {
	Evaluate(ctx context.Context, symbol string) strategy.Decision
}

// Warmuper при старте показывает оператору баланс и текущие сигналы
// по символам из конфига. Ордеров не ставит.
type Warmuper struct {
	balance   Balance
	evaluator Evaluator
	n         notify.Notifier
	log       *zap.Logger
	timeout   time.Duration

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

func NewWarmuper(b Balance, e Evaluator, n notify.Notifier, timeout time.Duration, log *zap.Logger) *Warmuper {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Warmuper{
		balance:   b,
		evaluator: e,
		n:         n,
		log:       log,
		timeout:   timeout,
		sem:       make(chan struct{}, 4), // 4 параллельных символа
	}
}

// Warmup возвращает ошибку только если не удалось получить баланс.
func (w *Warmuper) Warmup(ctx context.Context, symbols []string) error {
	w.n.Publish(notify.LogEvent("", "🔥 Warmup: баланс и сигналы"))

	bctx, cancel := context.WithTimeout(ctx, w.timeout)
	balance, err := w.balance.USDTBalance(bctx)
	cancel()
	if err != nil {
		w.n.Publish(notify.LogEvent("", "⚠️ Warmup: баланс недоступен: "+err.Error()))
		err = errors.Wrap(err, "warmup balance")
	} else {
		w.n.Publish(notify.Event{Kind: notify.KindBalance, Balance: balance, At: time.Now()})
	}

	decisions := make([]strategy.Decision, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		i, sym := i, sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				decisions[i] = strategy.Decision{Symbol: sym, Direction: models.DirectionHold, Reason: ctx.Err().Error()}
				return
			}
			defer func() { <-w.sem }()

			sctx, cancel := context.WithTimeout(ctx, w.timeout)
			defer cancel()
			decisions[i] = w.evaluator.Evaluate(sctx, sym)
		}()
	}
	wg.Wait()

	// в порядке конфига
	for _, d := range decisions {
		w.n.Publish(notify.LogEvent(d.Symbol, "🔎 "+d.String()))
	}
	w.log.Info("warmup done", zap.Int("symbols", len(symbols)), zap.Error(err))
	return err
}
