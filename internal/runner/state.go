package runner

import (
	"time"

	"futures_bot/internal/models"
)

// State: фаза цикла сделки по символу.
type State string

const (
	StateFlat       State = "FLAT"
	StateSizing     State = "SIZING"
	StateEntering   State = "ENTERING"
	StateMonitoring State = "MONITORING"
	StateExiting    State = "EXITING"
	StateError      State = "ERROR"
)

// ExitReason: почему закрыли позицию.
type ExitReason string

const (
	ReasonTakeProfit ExitReason = "take_profit"
	ReasonStopLoss   ExitReason = "stop_loss"
	ReasonStop       ExitReason = "operator_stop"
)

// Config: параметры цикла.
type Config struct {
	SizingFraction float64       // доля суммы под позицию
	TakeProfitPct  float64       // закрытие при pnl >= TakeProfitPct
	StopLossPct    float64       // закрытие при pnl <= StopLossPct
	PollInterval   time.Duration // период опроса mark price
	CallTimeout    time.Duration // таймаут одного вызова биржи
	Location       *time.Location
}

func DefaultConfig() Config {
	return Config{
		SizingFraction: 0.4,
		TakeProfitPct:  10,
		StopLossPct:    -15,
		PollInterval:   5 * time.Second,
		CallTimeout:    10 * time.Second,
		Location:       time.Local,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SizingFraction <= 0 {
		c.SizingFraction = def.SizingFraction
	}
	if c.TakeProfitPct <= 0 {
		c.TakeProfitPct = def.TakeProfitPct
	}
	if c.StopLossPct >= 0 {
		c.StopLossPct = def.StopLossPct
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.Location == nil {
		c.Location = def.Location
	}
	return c
}

// Result: итог закрытой сделки.
type Result struct {
	Reason     ExitReason
	PnLPercent float64
	ExitPrice  float64
	Quantity   float64
	Position   models.OpenPosition
	ClosedAt   time.Time
}
