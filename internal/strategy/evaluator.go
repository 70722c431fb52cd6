package strategy

import (
	"context"
	"time"

	"futures_bot/internal/indicators"
	"futures_bot/internal/models"
	"futures_bot/pkg/tracing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultConfig: значения, на которых бот торговал изначально.
func DefaultConfig() Config {
	return Config{
		Interval:   "5m",
		Limit:      100,
		RSIPeriod:  indicators.DefaultRSIPeriod,
		MACDShort:  indicators.DefaultMACDShort,
		MACDLong:   indicators.DefaultMACDLong,
		MACDSignal: indicators.DefaultMACDSignal,
		MAWindow:   indicators.DefaultMAWindow,
		RSILong:    55,
		RSIShort:   45,

		CallTimeout: 10 * time.Second,
	}
}

// Evaluator считает направление входа по свечам символа.
type Evaluator struct {
	cfg Config
	src KlineSource
	log *zap.Logger
}

func NewEvaluator(cfg Config, src KlineSource, log *zap.Logger) *Evaluator {
	def := DefaultConfig()
	if cfg.Interval == "" {
		cfg.Interval = def.Interval
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.MACDShort <= 0 || cfg.MACDLong <= cfg.MACDShort {
		cfg.MACDShort, cfg.MACDLong = def.MACDShort, def.MACDLong
	}
	if cfg.MACDSignal <= 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	if cfg.MAWindow <= 0 {
		cfg.MAWindow = def.MAWindow
	}
	if cfg.RSILong == 0 && cfg.RSIShort == 0 {
		cfg.RSILong, cfg.RSIShort = def.RSILong, def.RSIShort
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{cfg: cfg, src: src, log: log}
}

// Config: действующие параметры.
func (e *Evaluator) Config() Config { return e.cfg }

// Compute считает индикаторы по закрытиям. MACD без данных: ErrInsufficientData.
func (e *Evaluator) Compute(closes []float64) (Indicators, error) {
	rsi, err := indicators.RSI(closes, e.cfg.RSIPeriod)
	if err != nil {
		return Indicators{}, err
	}
	line, sig, ok := indicators.MACD(closes, e.cfg.MACDShort, e.cfg.MACDLong, e.cfg.MACDSignal)
	if !ok {
		return Indicators{RSI: rsi}, errors.Wrapf(models.ErrInsufficientData,
			"macd needs %d closes, got %d", e.cfg.MACDLong+e.cfg.MACDSignal, len(closes))
	}
	ma, err := indicators.MovingAverage(closes, e.cfg.MAWindow)
	if err != nil {
		return Indicators{}, err
	}
	return Indicators{RSI: rsi, MACD: line, MACDSignal: sig, MA: ma, HasMACD: true}, nil
}

// Decide: правило входа:
// LONG  если MACD > SIG и RSI >= RSILong  и цена > MA,
// SHORT если MACD < SIG и RSI <= RSIShort и цена < MA,
// иначе HOLD.
func (e *Evaluator) Decide(ind Indicators, price float64) models.Direction {
	return Decide(ind, price, e.cfg.RSILong, e.cfg.RSIShort)
}

// Decide без привязки к Evaluator.
func Decide(ind Indicators, price, rsiLong, rsiShort float64) models.Direction {
	if !ind.HasMACD {
		return models.DirectionHold
	}
	switch {
	case ind.MACD > ind.MACDSignal && ind.RSI >= rsiLong && price > ind.MA:
		return models.DirectionLong
	case ind.MACD < ind.MACDSignal && ind.RSI <= rsiShort && price < ind.MA:
		return models.DirectionShort
	default:
		return models.DirectionHold
	}
}

// EvaluateCloses: решение по готовому ряду; цена = последнее закрытие.
// Ошибки индикаторов превращаются в HOLD.
func (e *Evaluator) EvaluateCloses(symbol string, closes []float64) Decision {
	d := Decision{Symbol: symbol, Direction: models.DirectionHold}
	if len(closes) == 0 {
		d.Reason = "no closes"
		return d
	}
	d.Price = closes[len(closes)-1]

	ind, err := e.Compute(closes)
	if err != nil {
		d.Reason = err.Error()
		return d
	}
	d.Indicators = ind
	d.Direction = e.Decide(ind, d.Price)
	if d.Direction == models.DirectionHold {
		d.Reason = "entry conditions not met"
	}
	return d
}

// Evaluate тянет свечи и решает. Никогда не возвращает ошибку: любой сбой: HOLD.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("strategy panic", zap.String("symbol", symbol), zap.Any("panic", r))
			d = Decision{Symbol: symbol, Direction: models.DirectionHold, Reason: "strategy failure"}
		}
	}()

	var candles []models.Candle
	err := tracing.Call(ctx, "exchange.klines", func(ctx context.Context) (err error) {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
		candles, err = e.src.Klines(ctx, symbol, e.cfg.Interval, e.cfg.Limit)
		return err
	})
	if err != nil {
		e.log.Warn("klines fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return Decision{Symbol: symbol, Direction: models.DirectionHold, Reason: "klines: " + err.Error()}
	}

	d = e.EvaluateCloses(symbol, models.Closes(candles))
	e.log.Debug("strategy decision", zap.String("symbol", symbol), zap.Stringer("decision", d))
	return d
}

// Resolve: принудительный режим обходит стратегию целиком.
func (e *Evaluator) Resolve(ctx context.Context, symbol string, mode models.Mode) Decision {
	if dir, forced := mode.Forced(); forced {
		return Decision{Symbol: symbol, Direction: dir, Reason: "forced by operator"}
	}
	return e.Evaluate(ctx, symbol)
}
