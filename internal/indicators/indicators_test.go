package indicators

import (
	"errors"
	"testing"

	"futures_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestRSI(t *testing.T) {
	t.Parallel()

	t.Run("only gains saturate at 100", func(t *testing.T) {
		t.Parallel()
		rsi, err := RSI(ramp(30, 100, 1), DefaultRSIPeriod)
		require.NoError(t, err)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("only losses go to zero", func(t *testing.T) {
		t.Parallel()
		rsi, err := RSI(ramp(30, 200, -1), DefaultRSIPeriod)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, rsi, 1e-9)
	})

	t.Run("flat series counts as gains", func(t *testing.T) {
		t.Parallel()
		rsi, err := RSI(ramp(15, 50, 0), DefaultRSIPeriod)
		require.NoError(t, err)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("mixed", func(t *testing.T) {
		t.Parallel()
		// +2, -1 чередуются: 7 ростов по 2, 7 падений по 1 -> rs = 2
		closes := []float64{100}
		for i := 0; i < 14; i++ {
			last := closes[len(closes)-1]
			if i%2 == 0 {
				closes = append(closes, last+2)
			} else {
				closes = append(closes, last-1)
			}
		}
		rsi, err := RSI(closes, DefaultRSIPeriod)
		require.NoError(t, err)
		assert.InDelta(t, 100-100/3.0, rsi, 1e-9)
	})

	t.Run("uses only the latest window", func(t *testing.T) {
		t.Parallel()
		closes := append(ramp(20, 200, -5), ramp(15, 100, 1)...)
		rsi, err := RSI(closes, DefaultRSIPeriod)
		require.NoError(t, err)
		assert.Equal(t, 100.0, rsi)
	})

	t.Run("not enough closes", func(t *testing.T) {
		t.Parallel()
		_, err := RSI(ramp(14, 1, 1), DefaultRSIPeriod)
		assert.True(t, errors.Is(err, models.ErrInsufficientData))
	})
}

func TestEMA(t *testing.T) {
	t.Parallel()

	t.Run("constant series stays constant", func(t *testing.T) {
		t.Parallel()
		series := ramp(40, 42, 0)
		for _, period := range []int{1, 5, 12, 26, 40} {
			out := EMA(series, period)
			require.Len(t, out, len(series)-period+1)
			for _, v := range out {
				assert.InDelta(t, 42.0, v, 1e-9)
			}
		}
	})

	t.Run("seed is simple average", func(t *testing.T) {
		t.Parallel()
		out := EMA([]float64{1, 2, 3, 4}, 3)
		require.Len(t, out, 2)
		assert.InDelta(t, 2.0, out[0], 1e-12)
		// k = 0.5
		assert.InDelta(t, 3.0, out[1], 1e-12)
	})

	t.Run("short input", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, EMA([]float64{1, 2}, 3))
	})
}

func TestMACD(t *testing.T) {
	t.Parallel()

	t.Run("insufficient data is exactly zero", func(t *testing.T) {
		t.Parallel()
		line, sig, ok := MACD(ramp(34, 1, 1), DefaultMACDShort, DefaultMACDLong, DefaultMACDSignal)
		assert.False(t, ok)
		assert.Equal(t, 0.0, line)
		assert.Equal(t, 0.0, sig)
	})

	t.Run("constant series", func(t *testing.T) {
		t.Parallel()
		line, sig, ok := MACD(ramp(35, 10, 0), DefaultMACDShort, DefaultMACDLong, DefaultMACDSignal)
		require.True(t, ok)
		assert.InDelta(t, 0.0, line, 1e-9)
		assert.InDelta(t, 0.0, sig, 1e-9)
	})

	t.Run("uptrend is positive and above signal", func(t *testing.T) {
		t.Parallel()
		// экспоненциальный рост: короткая EMA уходит всё дальше от длинной
		closes := make([]float64, 100)
		closes[0] = 100
		for i := 1; i < len(closes); i++ {
			closes[i] = closes[i-1] * 1.01
		}
		line, sig, ok := MACD(closes, DefaultMACDShort, DefaultMACDLong, DefaultMACDSignal)
		require.True(t, ok)
		assert.Greater(t, line, 0.0)
		assert.Greater(t, line, sig)
	})

	t.Run("downtrend is negative and below signal", func(t *testing.T) {
		t.Parallel()
		// ускоряющееся падение
		closes := make([]float64, 100)
		for i := range closes {
			closes[i] = 1000 - 0.1*float64(i*i)
		}
		line, sig, ok := MACD(closes, DefaultMACDShort, DefaultMACDLong, DefaultMACDSignal)
		require.True(t, ok)
		assert.Less(t, line, 0.0)
		assert.Less(t, line, sig)
	})

	t.Run("aligned on long ema", func(t *testing.T) {
		t.Parallel()
		closes := ramp(40, 1, 1)
		line, _, ok := MACD(closes, 2, 4, 3)
		require.True(t, ok)
		s := EMA(closes, 2)
		l := EMA(closes, 4)
		assert.InDelta(t, s[len(s)-1]-l[len(l)-1], line, 1e-12)
	})
}

func TestMovingAverage(t *testing.T) {
	t.Parallel()

	ma, err := MovingAverage(ramp(30, 1, 1), DefaultMAWindow)
	require.NoError(t, err)
	// последние 20: 11..30
	assert.InDelta(t, 20.5, ma, 1e-12)

	_, err = MovingAverage(ramp(19, 1, 1), DefaultMAWindow)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}
