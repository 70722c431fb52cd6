package indicators

import (
	"futures_bot/internal/models"

	"github.com/pkg/errors"
)

// DefaultRSIPeriod: классические 14.
const DefaultRSIPeriod = 14

// RSI по последним period+1 закрытиям: средний рост / среднее падение,
// обе суммы делятся на period. Нулевое изменение идёт в рост.
// Если падений нет: ровно 100.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Wrapf(models.ErrInvalidParameter, "rsi period %d", period)
	}
	if len(closes) < period+1 {
		return 0, errors.Wrapf(models.ErrInsufficientData, "rsi needs %d closes, got %d", period+1, len(closes))
	}

	var gains, losses float64
	last := len(closes) - 1
	for i := 0; i < period; i++ {
		delta := closes[last-i] - closes[last-i-1]
		if delta >= 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}
