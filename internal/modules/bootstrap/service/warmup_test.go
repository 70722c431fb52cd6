package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures_bot/internal/models"
	"futures_bot/internal/notify"
	"futures_bot/internal/strategy"
)

type fakeBalance struct {
	v   float64
	err error
}

func (b fakeBalance) USDTBalance(context.Context) (float64, error) { return b.v, b.err }

type fakeEvaluator struct{}

func (fakeEvaluator) Evaluate(_ context.Context, symbol string) strategy.Decision {
	return strategy.Decision{Symbol: symbol, Direction: models.DirectionHold, Reason: "flat"}
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Send(string)          {}
func (r *recorder) Sendf(string, ...any) {}
func (r *recorder) Publish(ev notify.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func TestWarmup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		balance     fakeBalance
		wantErr     bool
		wantBalance bool
	}{
		{name: "ok", balance: fakeBalance{v: 1234.5}, wantBalance: true},
		{name: "balance down", balance: fakeBalance{err: errors.New("boom")}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			w := NewWarmuper(tt.balance, fakeEvaluator{}, rec, 0, nil)

			err := w.Warmup(context.Background(), []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			var (
				gotBalance bool
				symbols    []string
			)
			for _, ev := range rec.events {
				switch {
				case ev.Kind == notify.KindBalance:
					gotBalance = true
					assert.InDelta(t, 1234.5, ev.Balance, 1e-9)
				case ev.Kind == notify.KindLog && ev.Symbol != "":
					symbols = append(symbols, ev.Symbol)
					assert.Contains(t, ev.Text, "HOLD")
				}
			}
			assert.Equal(t, tt.wantBalance, gotBalance)
			// сигналы в порядке конфига, даже при ошибке баланса
			assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, symbols)
		})
	}
}
