package indicators

import (
	"futures_bot/internal/models"

	"github.com/pkg/errors"
)

const (
	DefaultMACDShort  = 12
	DefaultMACDLong   = 26
	DefaultMACDSignal = 9
	DefaultMAWindow   = 20
)

// EMA: затравка = SMA первых period значений, дальше price*k + prev*(1-k),
// k = 2/(period+1). Значение на каждый элемент начиная с индекса period-1,
// длина len(series)-period+1. Если данных мало: nil.
func EMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(series)-period+1)

	var seed float64
	for _, v := range series[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out = append(out, prev)

	for _, price := range series[period:] {
		prev = price*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// MACD возвращает последние значения линии MACD и сигнальной линии.
// Линия считается на индексах длинной EMA: короткая EMA обрезается на
// long-short элементов с начала. При len(closes) < long+signal ok=false и (0, 0).
func MACD(closes []float64, short, long, signal int) (line, sig float64, ok bool) {
	if short <= 0 || long <= short || signal <= 0 {
		return 0, 0, false
	}
	if len(closes) < long+signal {
		return 0, 0, false
	}

	shortEMA := EMA(closes, short)
	longEMA := EMA(closes, long)

	shortEMA = shortEMA[long-short:]
	macd := make([]float64, len(longEMA))
	for i := range longEMA {
		macd[i] = shortEMA[i] - longEMA[i]
	}

	signalLine := EMA(macd, signal)
	if len(signalLine) == 0 {
		return 0, 0, false
	}
	return macd[len(macd)-1], signalLine[len(signalLine)-1], true
}

// MovingAverage: простое среднее последних window закрытий.
func MovingAverage(closes []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, errors.Wrapf(models.ErrInvalidParameter, "ma window %d", window)
	}
	if len(closes) < window {
		return 0, errors.Wrapf(models.ErrInsufficientData, "ma needs %d closes, got %d", window, len(closes))
	}

	var sum float64
	for _, v := range closes[len(closes)-window:] {
		sum += v
	}
	return sum / float64(window), nil
}
