package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"futures_bot/internal/helper"
	"futures_bot/internal/journal"
	"futures_bot/internal/ledger"
	"futures_bot/internal/models"
	"futures_bot/internal/notify"
	"futures_bot/pkg/tracing"
)

// run: один проход FLAT -> ... -> FLAT. Ошибка возвращается без записи в журнал PnL.
func (c *Controller) run(ctx context.Context, s *Session) (res *Result, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "trade_cycle")
	span.SetTag("symbol", s.Symbol())
	span.SetTag("session", s.ID.String())
	defer func() {
		if err != nil {
			ext.Error.Set(span, true)
			span.LogKV("error", err.Error())
		}
		span.Finish()
	}()

	req := s.Request
	sym := req.Symbol

	// SIZING
	c.setState(s, StateSizing)

	var balance float64
	if err := c.call(ctx, "balance", func(ctx context.Context) (err error) {
		balance, err = c.gw.USDTBalance(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	c.notifier.Publish(notify.Event{Kind: notify.KindBalance, Balance: balance, At: c.now()})
	if balance < req.Amount {
		return nil, errors.Wrapf(models.ErrInsufficientBalance, "balance %.2f < amount %.2f", balance, req.Amount)
	}

	if err := c.call(ctx, "set_leverage", func(ctx context.Context) error {
		return c.gw.SetLeverage(ctx, sym, req.Leverage)
	}); err != nil {
		return nil, err
	}

	notional := helper.Notional(req.Amount, c.cfg.SizingFraction)

	decision := c.resolver.Resolve(ctx, sym, req.Mode)
	side, ok := models.PositionSideOf(decision.Direction)
	if !ok {
		c.log.Info("hold", zap.String("symbol", sym), zap.String("reason", decision.Reason))
		c.notifier.Publish(notify.LogEvent(sym, "⏸ HOLD — условия входа не выполнены ("+decision.Reason+")"))
		return nil, nil
	}
	if c.stoppedBeforeEntry(ctx, s) {
		return nil, nil
	}

	var mark float64
	if err := c.call(ctx, "mark_price", func(ctx context.Context) (err error) {
		mark, err = c.gw.MarkPrice(ctx, sym)
		return err
	}); err != nil {
		return nil, err
	}

	qty := helper.Quantity(notional, req.Leverage, mark)
	if qty <= 0 {
		return nil, errors.Wrapf(models.ErrInvalidParameter,
			"quantity rounds to zero: notional %.4f x%d @ %.4f", notional, req.Leverage, mark)
	}

	if c.stoppedBeforeEntry(ctx, s) {
		return nil, nil
	}

	// ENTERING
	c.setState(s, StateEntering)

	var fill models.Fill
	if err := c.call(ctx, "place_order", func(ctx context.Context) (err error) {
		fill, err = c.gw.PlaceMarketOrder(ctx, sym, side.EntrySide(), qty)
		return err
	}); err != nil {
		return nil, err
	}

	entry := fill.Price
	if entry <= 0 {
		entry = mark
	}
	if fill.Quantity > 0 {
		qty = fill.Quantity
	}
	pos := models.OpenPosition{
		Symbol:     sym,
		Side:       side,
		EntryPrice: entry,
		Quantity:   qty,
		Leverage:   req.Leverage,
		OpenedAt:   c.now(),
	}
	s.setPosition(&pos)
	s.setMark(entry)

	c.log.Info("position opened",
		zap.String("symbol", sym),
		zap.String("side", string(side)),
		zap.Float64("entry", entry),
		zap.Float64("qty", qty),
		zap.Int("leverage", req.Leverage))
	c.notifier.Publish(notify.LogEvent(sym, fmt.Sprintf("🚀 %s вход @ %.4f, qty=%s, x%d",
		side, entry, helper.FormatQty(qty), req.Leverage)))

	// MONITORING
	c.setState(s, StateMonitoring)
	reason, pnl := c.monitor(ctx, s, pos)

	// EXITING: выход доводится до конца даже после отмены ctx
	c.setState(s, StateExiting)
	return c.exit(context.WithoutCancel(ctx), s, pos, reason, pnl)
}

// monitor опрашивает mark price до порога или остановки.
// Ошибка цены не прерывает мониторинг: позиция открыта, пробуем на следующем тике.
func (c *Controller) monitor(ctx context.Context, s *Session, pos models.OpenPosition) (ExitReason, float64) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return ReasonStop, 0
		case <-ctx.Done():
			return ReasonStop, 0
		case <-ticker.C:
		}

		var mark float64
		err := c.call(ctx, "mark_price", func(ctx context.Context) (err error) {
			mark, err = c.gw.MarkPrice(ctx, pos.Symbol)
			return err
		})
		if err != nil {
			c.log.Warn("mark price failed, retry on next tick", zap.String("symbol", pos.Symbol), zap.Error(err))
			continue
		}

		pnl := pos.PnLPercent(mark)
		s.setMark(mark)
		now := c.now()
		c.lastTick.Store(now.UnixNano())

		c.log.Debug("tick", zap.String("symbol", pos.Symbol), zap.Float64("mark", mark), zap.Float64("pnl", pnl))
		c.notifier.Publish(notify.Event{Kind: notify.KindTick, Symbol: pos.Symbol, Price: mark, PnL: pnl, At: now})
		c.notifier.Publish(notify.LogEvent(pos.Symbol, fmt.Sprintf("📈 %.4f | PnL %+.2f%%", mark, pnl)))

		switch {
		case pnl >= c.cfg.TakeProfitPct:
			return ReasonTakeProfit, pnl
		case pnl <= c.cfg.StopLossPct:
			return ReasonStopLoss, pnl
		}
	}
}

// exit закрывает фактический объём с биржи и пишет PnL.
func (c *Controller) exit(ctx context.Context, s *Session, pos models.OpenPosition, reason ExitReason, pnl float64) (*Result, error) {
	sym := pos.Symbol

	var qty float64
	if err := c.call(ctx, "position_quantity", func(ctx context.Context) (err error) {
		qty, err = c.gw.OpenPositionQuantity(ctx, sym)
		return err
	}); err != nil {
		c.reportLeftOpen(pos, pos.Quantity, err)
		return nil, err
	}
	if qty <= 0 {
		s.setPosition(nil)
		return nil, errors.Wrapf(models.ErrNoOpenPosition, "symbol %s", sym)
	}

	var fill models.Fill
	if err := c.call(ctx, "place_order", func(ctx context.Context) (err error) {
		fill, err = c.gw.PlaceMarketOrder(ctx, sym, pos.Side.ExitSide(), qty)
		return err
	}); err != nil {
		c.reportLeftOpen(pos, qty, err)
		return nil, err
	}

	exitPrice := fill.Price
	if exitPrice <= 0 {
		exitPrice = s.mark()
	}
	if reason == ReasonStop {
		pnl = pos.PnLPercent(exitPrice)
	}

	closedAt := c.now()
	c.ledger.RecordTrade(ledger.DateOf(closedAt, c.cfg.Location), pnl)
	s.setPosition(nil)

	res := &Result{
		Reason:     reason,
		PnLPercent: pnl,
		ExitPrice:  exitPrice,
		Quantity:   qty,
		Position:   pos,
		ClosedAt:   closedAt,
	}

	c.log.Info("position closed",
		zap.String("symbol", sym),
		zap.String("reason", string(reason)),
		zap.Float64("exit", exitPrice),
		zap.Float64("qty", qty),
		zap.Float64("pnl", pnl))
	c.notifier.Publish(notify.LogEvent(sym, fmt.Sprintf("✅ Позиция закрыта (%s): PnL %+.2f%%", reason, pnl)))
	c.notifier.Publish(notify.Event{Kind: notify.KindLedger, Symbol: sym, PnL: pnl, At: closedAt})

	jctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()
	if err := c.journal.Record(jctx, journal.Trade{
		ID:         s.ID,
		Symbol:     sym,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Quantity:   qty,
		Leverage:   pos.Leverage,
		PnLPercent: pnl,
		Reason:     string(reason),
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   closedAt,
	}); err != nil {
		c.log.Error("journal write failed", zap.String("symbol", sym), zap.Error(err))
	}

	return res, nil
}

// stoppedBeforeEntry: стоп или отмена пришли до входного ордера.
func (c *Controller) stoppedBeforeEntry(ctx context.Context, s *Session) bool {
	select {
	case <-s.stop:
	case <-ctx.Done():
	default:
		return false
	}
	c.log.Info("stopped before entry", zap.String("symbol", s.Symbol()))
	c.notifier.Publish(notify.LogEvent(s.Symbol(), "🛑 Остановлено до входа, ордер не выставлен"))
	return true
}

// reportLeftOpen: выход не удался, позиция на бирже осталась открытой.
// Повтора нет, закрывать оператору.
func (c *Controller) reportLeftOpen(pos models.OpenPosition, qty float64, err error) {
	c.log.Error("exit failed, position left open",
		zap.String("symbol", pos.Symbol),
		zap.String("side", string(pos.Side)),
		zap.Float64("qty", qty),
		zap.Float64("entry", pos.EntryPrice),
		zap.Error(err))
	c.notifier.Publish(notify.LogEvent(pos.Symbol, fmt.Sprintf(
		"🚨 Позиция осталась открытой: %s qty=%s, вход @ %.4f. Закройте вручную",
		pos.Side, helper.FormatQty(qty), pos.EntryPrice)))
}

// call: вызов биржи с таймаутом и спаном; ошибка -> ExchangeError.
func (c *Controller) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := tracing.Call(ctx, "exchange."+op, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
		return fn(ctx)
	})
	return models.NewExchangeError(op, err)
}
