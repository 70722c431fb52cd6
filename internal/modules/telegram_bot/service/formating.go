package service

import (
	"fmt"
	"sort"
	"strings"

	presenter "futures_bot/internal/modules/presenter/service"
)

const weekHeader = "Su Mo Tu We Th Fr Sa"

func formatStatus(v presenter.View) string {
	var b strings.Builder
	b.WriteString("📊 ")
	b.WriteString(v.BalanceText)
	b.WriteString("\n")
	b.WriteString(v.CumulativeReturnText)
	b.WriteString("\n")

	if len(v.States) == 0 {
		b.WriteString("\nАктивных циклов нет")
		return b.String()
	}

	symbols := make([]string, 0, len(v.States))
	for s := range v.States {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	b.WriteString("\n")
	for _, s := range symbols {
		fmt.Fprintf(&b, "%s: %s", s, v.States[s])
		if t, ok := v.Ticks[s]; ok {
			fmt.Fprintf(&b, " @ %.4f (%s%%)", t.Price, f2(t.PnL))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatCalendar: моноширинная сетка месяца, под ней дни с PnL.
func formatCalendar(v presenter.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", v.Month.String(), v.Year)
	b.WriteString(weekHeader)
	b.WriteString("\n")

	rows := 0
	for _, c := range v.Calendar {
		if c.Row+1 > rows {
			rows = c.Row + 1
		}
	}
	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = []string{"  ", "  ", "  ", "  ", "  ", "  ", "  "}
	}

	var days []string
	for _, c := range v.Calendar {
		grid[c.Row][c.Col] = fmt.Sprintf("%2d", c.Day)
		if c.PnL != nil {
			days = append(days, fmt.Sprintf("%2d: %s%%", c.Day, f2(*c.PnL)))
		}
	}

	for _, row := range grid {
		b.WriteString(strings.TrimRight(strings.Join(row, " "), " "))
		b.WriteString("\n")
	}

	if len(days) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(days, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
