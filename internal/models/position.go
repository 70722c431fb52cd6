package models

import "time"

// OpenPosition: активная сделка. Живёт только внутри контроллера.
type OpenPosition struct {
	Symbol     string
	Side       PositionSide
	EntryPrice float64
	Quantity   float64
	Leverage   int
	OpenedAt   time.Time
}

// PnLPercent: доходность к цене входа в процентах, для SHORT со сменой знака.
func (p OpenPosition) PnLPercent(mark float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	pnl := (mark - p.EntryPrice) / p.EntryPrice * 100
	if p.Side == PositionShort {
		pnl = -pnl
	}
	return pnl
}

// Fill: результат рыночного ордера.
type Fill struct {
	OrderID  int64
	Price    float64
	Quantity float64
}

// Candle: свеча; стратегии нужен только Close.
type Candle struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// Closes: цены закрытия, последняя в конце.
func Closes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Close)
	}
	return out
}
