package helper

import (
	"strings"

	"github.com/shopspring/decimal"
)

// QtyPrecision: знаков после запятой в количестве контрактов.
const QtyPrecision = 3

// NormInterval приводит таймфрейм к виду Binance: "5M"/"5min" -> "5m", "60m" -> "1h".
func NormInterval(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimSuffix(s, "in")
	switch s {
	case "60m":
		return "1h"
	case "240m":
		return "4h"
	case "1440m", "24h":
		return "1d"
	default:
		return s
	}
}

// RoundQty: количество с QtyPrecision знаками, половина от нуля.
func RoundQty(qty float64) float64 {
	v, _ := decimal.NewFromFloat(qty).Round(QtyPrecision).Float64()
	return v
}

// FormatQty: количество строкой для ордера, без хвостовых нулей.
func FormatQty(qty float64) string {
	return decimal.NewFromFloat(qty).Round(QtyPrecision).String()
}

// Notional: сумма под позицию: amount * fraction.
func Notional(amount, fraction float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(fraction)).Float64()
	return v
}

// Quantity: (notional * leverage) / price, округлённое через RoundQty.
func Quantity(notional float64, leverage int, price float64) float64 {
	if price <= 0 {
		return 0
	}
	q := decimal.NewFromFloat(notional).
		Mul(decimal.NewFromInt(int64(leverage))).
		Div(decimal.NewFromFloat(price))
	v, _ := q.Round(QtyPrecision).Float64()
	return v
}
