package ledger

import (
	"fmt"
	"sync"
	"time"
)

// Date: календарный день без времени и зоны.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf: день момента t в зоне loc (nil = time.Local).
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Snapshot: копия состояния журнала.
type Snapshot struct {
	Cumulative float64
	Days       map[Date]float64
}

// PnL: доходность за день и была ли сделка.
func (s Snapshot) PnL(d Date) (float64, bool) {
	v, ok := s.Days[d]
	return v, ok
}

// Ledger: дневной PnL и накопленная доходность.
// Повторная сделка в тот же день перезаписывает день, а в накопленную
// сумму добавляется всегда.
type Ledger struct {
	mu         sync.RWMutex
	cumulative float64
	days       map[Date]float64
}

func New() *Ledger {
	return &Ledger{days: make(map[Date]float64)}
}

// RecordTrade: единственная точка записи.
func (l *Ledger) RecordTrade(d Date, pnlPercent float64) {
	l.mu.Lock()
	l.days[d] = pnlPercent
	l.cumulative += pnlPercent
	l.mu.Unlock()
}

// Cumulative: сумма всех записанных сделок.
func (l *Ledger) Cumulative() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cumulative
}

// Snapshot: согласованная копия: накопленная и дни читаются под одним локом.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	days := make(map[Date]float64, len(l.days))
	for k, v := range l.days {
		days[k] = v
	}
	return Snapshot{Cumulative: l.cumulative, Days: days}
}
