package notify

import (
	"fmt"
	"time"
)

// Kind: тип события для отображения.
type Kind string

const (
	KindLog     Kind = "log"     // строка в лог оператора
	KindBalance Kind = "balance" // баланс USDT после запроса
	KindLedger  Kind = "ledger"  // записана сделка, календарь устарел
	KindState   Kind = "state"   // смена состояния цикла
	KindTick    Kind = "tick"    // очередной тик мониторинга
)

// Event: единица передачи от торгового цикла к отображению.
type Event struct {
	Kind    Kind      `json:"kind"`
	Symbol  string    `json:"symbol,omitempty"`
	Text    string    `json:"text,omitempty"`
	State   string    `json:"state,omitempty"`
	Balance float64   `json:"balance,omitempty"`
	Price   float64   `json:"price,omitempty"`
	PnL     float64   `json:"pnl,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier: куда торговый цикл пишет. Реализации не должны блокировать.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
	Publish(ev Event)
}

// LogEvent: событие-строка лога.
func LogEvent(symbol, text string) Event {
	return Event{Kind: KindLog, Symbol: symbol, Text: text, At: time.Now()}
}

// Multi рассылает в несколько нотифайеров по порядку.
type Multi []Notifier

func (m Multi) Send(msg string) {
	for _, n := range m {
		n.Send(msg)
	}
}

func (m Multi) Sendf(format string, args ...any) { m.Send(fmt.Sprintf(format, args...)) }

func (m Multi) Publish(ev Event) {
	for _, n := range m {
		n.Publish(ev)
	}
}
