package service

import (
	"fmt"
	"time"

	"futures_bot/internal/ledger"
)

// View: всё, что рисует фронт. Отдаётся копией.
type View struct {
	BalanceText          string            `json:"balance_text"`
	CumulativeReturnText string            `json:"cumulative_return_text"`
	LogLines             []string          `json:"log_lines"`
	Year                 int               `json:"year"`
	Month                time.Month        `json:"month"`
	Calendar             []ledger.Cell     `json:"calendar"`
	States               map[string]string `json:"states"`
	Ticks                map[string]Tick   `json:"ticks"`
	Symbols              []string          `json:"symbols"`
}

// Tick: последняя цена и PnL по символу.
type Tick struct {
	Price float64   `json:"price"`
	PnL   float64   `json:"pnl"`
	At    time.Time `json:"at"`
}

func (v View) clone() View {
	out := v
	out.LogLines = append([]string(nil), v.LogLines...)
	out.Calendar = make([]ledger.Cell, len(v.Calendar))
	for i, c := range v.Calendar {
		if c.PnL != nil {
			p := *c.PnL
			c.PnL = &p
		}
		out.Calendar[i] = c
	}
	out.States = make(map[string]string, len(v.States))
	for k, s := range v.States {
		out.States[k] = s
	}
	out.Ticks = make(map[string]Tick, len(v.Ticks))
	for k, t := range v.Ticks {
		out.Ticks[k] = t
	}
	out.Symbols = append([]string(nil), v.Symbols...)
	return out
}

// BalanceText: "Balance: 123.45 USDT".
func BalanceText(balance float64) string {
	return fmt.Sprintf("Balance: %.2f USDT", balance)
}

// CumulativeText: "Cumulative return: +2.00%".
func CumulativeText(cum float64) string {
	return fmt.Sprintf("Cumulative return: %+.2f%%", cum)
}
