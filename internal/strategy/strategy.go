package strategy

import (
	"context"
	"fmt"
	"time"

	"futures_bot/internal/models"
)

// Indicators: снимок индикаторов на одно решение.
type Indicators struct {
	RSI        float64
	MACD       float64
	MACDSignal float64
	MA         float64
	HasMACD    bool
}

// Decision: ответ стратегии.
type Decision struct {
	Symbol     string
	Direction  models.Direction
	Price      float64
	Indicators Indicators
	Reason     string
}

func (d Decision) String() string {
	if !d.Indicators.HasMACD {
		return fmt.Sprintf("%s %s: %s", d.Symbol, d.Direction, d.Reason)
	}
	return fmt.Sprintf("%s %s @ %.4f | RSI=%.2f MACD=%.5f SIG=%.5f MA=%.4f",
		d.Symbol, d.Direction, d.Price,
		d.Indicators.RSI, d.Indicators.MACD, d.Indicators.MACDSignal, d.Indicators.MA)
}

// Config: параметры индикаторов и пороги входа.
type Config struct {
	Interval   string // таймфрейм свечей, "5m"
	Limit      int    // сколько свечей тянуть
	RSIPeriod  int
	MACDShort  int
	MACDLong   int
	MACDSignal int
	MAWindow   int
	RSILong    float64 // LONG при RSI >= RSILong
	RSIShort   float64 // SHORT при RSI <= RSIShort

	CallTimeout time.Duration // лимит на запрос свечей
}

// KlineSource: откуда брать свечи (шлюз биржи).
type KlineSource interface {
	Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}
