package ledger

import "time"

// Month: курсор календаря.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf: месяц момента t в зоне loc.
func MonthOf(t time.Time, loc *time.Location) Month {
	d := DateOf(t, loc)
	return Month{Year: d.Year, Month: d.Month}
}

// Prev: январь -> декабрь прошлого года.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Next: декабрь -> январь следующего года.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Days: число дней в месяце.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Cell: клетка календаря. PnL nil, если в этот день сделок не было.
type Cell struct {
	Row int      `json:"row"`
	Col int      `json:"col"` // 0 = воскресенье
	Day int      `json:"day"`
	PnL *float64 `json:"pnl,omitempty"`
}

// Calendar раскладывает месяц в сетку с воскресенья.
func Calendar(s Snapshot, m Month) []Cell {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	offset := int(first.Weekday())

	n := m.Days()
	cells := make([]Cell, 0, n)
	for day := 1; day <= n; day++ {
		pos := offset + day - 1
		c := Cell{Row: pos / 7, Col: pos % 7, Day: day}
		if v, ok := s.PnL(Date{Year: m.Year, Month: m.Month, Day: day}); ok {
			v := v
			c.PnL = &v
		}
		cells = append(cells, c)
	}
	return cells
}
