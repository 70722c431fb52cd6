package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"futures_bot/internal/journal"
	"futures_bot/internal/ledger"
	"futures_bot/internal/models"
	"futures_bot/internal/notify"
)

type recordingJournal struct {
	trades chan journal.Trade
	err    error
}

func (j *recordingJournal) Record(_ context.Context, t journal.Trade) error {
	j.trades <- t
	return j.err
}

type harness struct {
	c       *Controller
	gw      *fakeGateway
	ledger  *ledger.Ledger
	queue   *notify.Queue
	journal *recordingJournal
}

func newHarness(t *testing.T, gw *fakeGateway, dir models.Direction) *harness {
	t.Helper()

	h := &harness{
		gw:      gw,
		ledger:  ledger.New(),
		queue:   notify.NewQueue(1024),
		journal: &recordingJournal{trades: make(chan journal.Trade, 8)},
	}
	h.c = NewController(Config{
		PollInterval: time.Millisecond,
		CallTimeout:  time.Second,
		Location:     time.UTC,
	}, gw, &fixedResolver{dir: dir}, h.ledger, h.journal, h.queue, zaptest.NewLogger(t))
	h.c.now = func() time.Time { return time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC) }
	return h
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("cycle for %s did not finish, state %s", s.Symbol(), s.State())
	}
}

func (h *harness) states(symbol string) []State {
	var out []State
	for {
		select {
		case ev := <-h.queue.Events():
			if ev.Kind == notify.KindState && ev.Symbol == symbol {
				out = append(out, State(ev.State))
			}
		default:
			return out
		}
	}
}

func req(symbol string, amount float64, lev int, mode models.Mode) models.StartRequest {
	return models.StartRequest{Symbol: symbol, Amount: amount, Leverage: lev, Mode: mode}
}

func TestInsufficientBalancePlacesNoOrder(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 100, marks: []float64{100}}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 150, 5, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.True(t, errors.Is(s.Err(), models.ErrInsufficientBalance))
	assert.Empty(t, gw.placed())
	assert.Empty(t, gw.leverages)
	assert.Equal(t, StateFlat, s.State())
	assert.Zero(t, h.ledger.Cumulative())
	assert.Equal(t, StateFlat, h.c.State("BTCUSDT"))
}

func TestTakeProfitLong(t *testing.T) {
	t.Parallel()

	// вход по 100, дальше 105 -> 108 -> 111 (+11%)
	gw := &fakeGateway{balance: 1000, marks: []float64{100, 105, 108, 111, 90}}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 10, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)
	require.NoError(t, s.Err())

	orders := gw.placed()
	require.Len(t, orders, 2)
	// 100 * 0.4 * 10 / 100 = 4
	assert.Equal(t, placedOrder{Symbol: "BTCUSDT", Side: models.SideBuy, Qty: 4}, orders[0])
	assert.Equal(t, placedOrder{Symbol: "BTCUSDT", Side: models.SideSell, Qty: 4}, orders[1])

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, ReasonTakeProfit, res.Reason)
	assert.InDelta(t, 11.0, res.PnLPercent, 1e-9)

	snap := h.ledger.Snapshot()
	assert.InDelta(t, res.PnLPercent, snap.Cumulative, 1e-12)
	day := ledger.Date{Year: 2024, Month: time.June, Day: 3}
	assert.InDelta(t, 11.0, snap.Days[day], 1e-9)

	_, open := s.Position()
	assert.False(t, open)

	trade := <-h.journal.trades
	assert.Equal(t, s.ID, trade.ID)
	assert.Equal(t, "take_profit", trade.Reason)
	assert.InDelta(t, 100.0, trade.EntryPrice, 1e-9)

	assert.Equal(t, []State{StateSizing, StateEntering, StateMonitoring, StateExiting, StateFlat}, h.states("BTCUSDT"))
}

func TestStopLossShort(t *testing.T) {
	t.Parallel()

	// SHORT от 200: 220 (-10%), 232 (-16%)
	gw := &fakeGateway{balance: 1000, marks: []float64{200, 220, 232}}
	h := newHarness(t, gw, models.DirectionHold)

	s, err := h.c.Start(context.Background(), req("ETHUSDT", 500, 2, models.ModeForceShort))
	require.NoError(t, err)
	waitDone(t, s)
	require.NoError(t, s.Err())

	orders := gw.placed()
	require.Len(t, orders, 2)
	assert.Equal(t, models.SideSell, orders[0].Side)
	assert.Equal(t, models.SideBuy, orders[1].Side)
	assert.InDelta(t, 2.0, orders[0].Qty, 1e-12)
	assert.Equal(t, orders[0].Qty, orders[1].Qty)

	res, _ := s.Result()
	assert.Equal(t, ReasonStopLoss, res.Reason)
	assert.InDelta(t, -16.0, res.PnLPercent, 1e-9)
	assert.InDelta(t, -16.0, h.ledger.Cumulative(), 1e-9)
}

func TestHoldPlacesNoOrder(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, marks: []float64{100}}
	h := newHarness(t, gw, models.DirectionHold)

	s, err := h.c.Start(context.Background(), req("SOLUSDT", 100, 3, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.NoError(t, s.Err())
	assert.Empty(t, gw.placed())
	assert.Equal(t, []int{3}, gw.leverages)
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Empty(t, h.ledger.Snapshot().Days)
}

func TestSecondStartRejected(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, marks: []float64{100, 101}}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 1, models.ModeAuto))
	require.NoError(t, err)

	_, err = h.c.Start(context.Background(), req("BTCUSDT", 50, 1, models.ModeForceShort))
	assert.True(t, errors.Is(err, models.ErrAlreadyRunning))
	assert.Equal(t, []string{"BTCUSDT"}, h.c.Active())

	require.NoError(t, h.c.Stop("BTCUSDT"))
	waitDone(t, s)
	assert.Empty(t, h.c.Active())
}

func TestOperatorStopClosesFullQuantity(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, marks: []float64{100, 102}}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 250, 4, models.ModeAuto))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.State() == StateMonitoring && !h.c.LastTick().IsZero()
	}, 2*time.Second, time.Millisecond)

	require.NoError(t, h.c.Stop("BTCUSDT"))
	waitDone(t, s)
	require.NoError(t, s.Err())

	orders := gw.placed()
	require.Len(t, orders, 2)
	assert.Equal(t, models.SideSell, orders[1].Side)
	assert.Equal(t, orders[0].Qty, orders[1].Qty)

	res, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, ReasonStop, res.Reason)
	// выход по цене исполнения 102
	assert.InDelta(t, 2.0, res.PnLPercent, 1e-9)
	assert.InDelta(t, 2.0, h.ledger.Cumulative(), 1e-9)
}

func TestStopWithoutFillPriceUsesLastMark(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, marks: []float64{100, 97}, noFill: true}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 1, models.ModeAuto))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !h.c.LastTick().IsZero() }, 2*time.Second, time.Millisecond)

	require.NoError(t, h.c.Stop("BTCUSDT"))
	waitDone(t, s)

	res, ok := s.Result()
	require.True(t, ok)
	// вход без цены исполнения -> mark 100, выход -> последний mark 97
	assert.InDelta(t, 100.0, res.Position.EntryPrice, 1e-9)
	assert.InDelta(t, -3.0, res.PnLPercent, 1e-9)
}

func TestExchangeErrorAbortsWithoutRecord(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, marks: []float64{100}, orderErr: errors.New("margin is insufficient")}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 10, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	err = s.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExchange))
	var exErr *models.ExchangeError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "place_order", exErr.Op)

	assert.Empty(t, gw.placed())
	assert.Empty(t, h.ledger.Snapshot().Days)
	assert.Equal(t, StateFlat, s.State())

	states := h.states("BTCUSDT")
	require.NotEmpty(t, states)
	assert.Equal(t, StateError, states[len(states)-2])
	assert.Equal(t, StateFlat, states[len(states)-1])
}

func TestLeverageErrorAborts(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, leverageErr: errors.New("leverage not valid")}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 10, 200, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.True(t, errors.Is(s.Err(), models.ErrExchange))
	assert.Empty(t, gw.placed())
}

func TestExitWithoutOpenQuantityRecordsNothing(t *testing.T) {
	t.Parallel()

	zero := 0.0
	gw := &fakeGateway{balance: 1000, marks: []float64{100, 120}, openQtyOverride: &zero}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 1, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.True(t, errors.Is(s.Err(), models.ErrNoOpenPosition))
	assert.Len(t, gw.placed(), 1)
	assert.Zero(t, h.ledger.Cumulative())
	_, open := s.Position()
	assert.False(t, open)
}

func TestMarkPriceFailureDuringMonitoringIsRetried(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		balance:   1000,
		marks:     []float64{100, 100, 100, 112},
		markErrAt: map[int]error{1: errors.New("timeout"), 2: errors.New("timeout")},
	}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 1, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)
	require.NoError(t, s.Err())

	res, _ := s.Result()
	assert.Equal(t, ReasonTakeProfit, res.Reason)
	assert.InDelta(t, 12.0, res.PnLPercent, 1e-9)
}

func TestCallTimeoutIsExchangeError(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{blockCalls: true}
	h := newHarness(t, gw, models.DirectionLong)
	h.c.cfg.CallTimeout = 20 * time.Millisecond

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 1, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.True(t, errors.Is(s.Err(), models.ErrExchange))
	assert.True(t, errors.Is(s.Err(), context.DeadlineExceeded))
}

func TestStartValidatesSynchronously(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeGateway{}, models.DirectionLong)

	tests := []models.StartRequest{
		req("BTCUSDT", 0, 1, models.ModeAuto),
		req("BTCUSDT", -5, 1, models.ModeAuto),
		req("BTCUSDT", 10, 0, models.ModeAuto),
		req("", 10, 1, models.ModeAuto),
		req("BTCUSDT", 10, 1, models.Mode("sideways")),
	}
	for _, r := range tests {
		s, err := h.c.Start(context.Background(), r)
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, models.ErrInvalidParameter), "%+v: %v", r, err)
	}
	assert.Empty(t, h.c.Active())
}

func TestQuantityRoundingToZeroIsInvalid(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 1000, marks: []float64{100000}}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 1, 1, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.True(t, errors.Is(s.Err(), models.ErrInvalidParameter))
	assert.Empty(t, gw.placed())
}

func TestStopUnknownSymbol(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &fakeGateway{}, models.DirectionLong)
	assert.True(t, errors.Is(h.c.Stop("XRPUSDT"), models.ErrNotRunning))
}

func TestStopAllClosesEverySymbol(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{balance: 10000, marks: []float64{100, 101}}
	h := newHarness(t, gw, models.DirectionLong)

	var sessions []*Session
	for _, sym := range []string{"BTCUSDT", "ETHUSDT"} {
		s, err := h.c.Start(context.Background(), req(sym, 100, 1, models.ModeAuto))
		require.NoError(t, err)
		sessions = append(sessions, s)
	}
	require.Eventually(t, func() bool {
		return sessions[0].State() == StateMonitoring && sessions[1].State() == StateMonitoring
	}, 2*time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, h.c.StopAll(ctx))

	for _, s := range sessions {
		res, ok := s.Result()
		require.True(t, ok, s.Symbol())
		assert.Equal(t, ReasonStop, res.Reason)
	}
	assert.Empty(t, h.c.Active())
}

func (h *harness) logs(symbol string) []string {
	var out []string
	for {
		select {
		case ev := <-h.queue.Events():
			if ev.Kind == notify.KindLog && ev.Symbol == symbol {
				out = append(out, ev.Text)
			}
		default:
			return out
		}
	}
}

func TestUppercaseModeRejected(t *testing.T) {
	t.Parallel()

	// стратегия сказала бы SHORT; "LONG" не должен тихо уйти в auto
	gw := &fakeGateway{balance: 1000, marks: []float64{100}}
	h := newHarness(t, gw, models.DirectionShort)

	for _, m := range []models.Mode{"LONG", "Short", " long"} {
		s, err := h.c.Start(context.Background(), req("ETHUSDT", 100, 1, m))
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, models.ErrInvalidParameter), "mode %q: %v", m, err)
	}
	assert.Empty(t, h.c.Active())
	assert.Empty(t, gw.placed())
	assert.Empty(t, gw.leverages)
}

func TestStopBeforeEntryPlacesNoOrder(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	gw := &fakeGateway{balance: 1000, marks: []float64{100}, leverageGate: gate}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("ETHUSDT", 100, 1, models.ModeAuto))
	require.NoError(t, err)
	require.NoError(t, h.c.Stop("ETHUSDT"))
	close(gate)
	waitDone(t, s)

	require.NoError(t, s.Err())
	assert.Empty(t, gw.placed())
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Zero(t, h.ledger.Cumulative())
	assert.Equal(t, StateFlat, h.c.State("ETHUSDT"))

	var stopped bool
	for _, line := range h.logs("ETHUSDT") {
		if strings.Contains(line, "до входа") {
			stopped = true
		}
	}
	assert.True(t, stopped)
}

func TestFailedExitReportsOpenPosition(t *testing.T) {
	t.Parallel()

	// вход проходит, выходной ордер (второй) падает на тейк-профите
	gw := &fakeGateway{
		balance:    1000,
		marks:      []float64{100, 111},
		orderErr:   errors.New("service unavailable"),
		orderErrAt: 2,
	}
	h := newHarness(t, gw, models.DirectionLong)

	s, err := h.c.Start(context.Background(), req("BTCUSDT", 100, 10, models.ModeAuto))
	require.NoError(t, err)
	waitDone(t, s)

	assert.True(t, errors.Is(s.Err(), models.ErrExchange))
	require.Len(t, gw.placed(), 1)
	assert.Empty(t, h.ledger.Snapshot().Days)

	var report string
	for _, line := range h.logs("BTCUSDT") {
		if strings.Contains(line, "осталась открытой") {
			report = line
		}
	}
	require.NotEmpty(t, report)
	assert.Contains(t, report, "LONG")
	assert.Contains(t, report, "Закройте вручную")
}
