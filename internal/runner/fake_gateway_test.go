package runner

import (
	"context"
	"sync"

	"futures_bot/internal/models"
	"futures_bot/internal/strategy"
)

type placedOrder struct {
	Symbol string
	Side   models.Side
	Qty    float64
}

// fakeGateway: биржа со скриптом mark price. После конца скрипта
// повторяется последняя цена.
type fakeGateway struct {
	mu sync.Mutex

	balance      float64
	balanceErr   error
	blockCalls   bool // вызовы ждут отмены ctx
	leverageErr  error
	leverageGate chan struct{} // SetLeverage ждёт закрытия
	leverages    []int

	marks     []float64
	markCalls int
	markErrAt map[int]error
	lastMark  float64

	orders     []placedOrder
	orderErr   error
	orderErrAt int // номер ордера (с 1), на котором ошибка; 0 = на всех при orderErr
	fillPrice  float64
	noFill     bool // avgPrice пустой

	openQty         map[string]float64
	openQtyOverride *float64
	positionErr     error
}

func (f *fakeGateway) USDTBalance(ctx context.Context) (float64, error) {
	if f.blockCalls {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, f.balanceErr
}

func (f *fakeGateway) SetLeverage(ctx context.Context, _ string, leverage int) error {
	if f.leverageGate != nil {
		select {
		case <-f.leverageGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverages = append(f.leverages, leverage)
	return f.leverageErr
}

func (f *fakeGateway) MarkPrice(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.markCalls
	f.markCalls++
	if err, ok := f.markErrAt[i]; ok {
		return 0, err
	}
	if len(f.marks) == 0 {
		return 0, nil
	}
	if i >= len(f.marks) {
		i = len(f.marks) - 1
	}
	f.lastMark = f.marks[i]
	return f.lastMark, nil
}

func (f *fakeGateway) PlaceMarketOrder(_ context.Context, symbol string, side models.Side, qty float64) (models.Fill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.orders) + 1
	if f.orderErr != nil && (f.orderErrAt == 0 || f.orderErrAt == n) {
		return models.Fill{}, f.orderErr
	}
	f.orders = append(f.orders, placedOrder{Symbol: symbol, Side: side, Qty: qty})

	if f.openQty == nil {
		f.openQty = make(map[string]float64)
	}
	// первый ордер по символу открывает позицию, второй закрывает
	if f.openQty[symbol] == 0 {
		f.openQty[symbol] = qty
	} else {
		f.openQty[symbol] = 0
	}

	if f.noFill {
		return models.Fill{OrderID: int64(n)}, nil
	}
	price := f.fillPrice
	if price == 0 {
		price = f.lastMark
	}
	return models.Fill{OrderID: int64(n), Price: price, Quantity: qty}, nil
}

func (f *fakeGateway) OpenPositionQuantity(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.positionErr != nil {
		return 0, f.positionErr
	}
	if f.openQtyOverride != nil {
		return *f.openQtyOverride, nil
	}
	return f.openQty[symbol], nil
}

func (f *fakeGateway) Klines(context.Context, string, string, int) ([]models.Candle, error) {
	return nil, nil
}

func (f *fakeGateway) placed() []placedOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]placedOrder(nil), f.orders...)
}

// fixedResolver всегда отвечает одним направлением.
type fixedResolver struct {
	dir   models.Direction
	mu    sync.Mutex
	modes []models.Mode
}

func (r *fixedResolver) Resolve(_ context.Context, symbol string, mode models.Mode) strategy.Decision {
	r.mu.Lock()
	r.modes = append(r.modes, mode)
	r.mu.Unlock()
	if dir, forced := mode.Forced(); forced {
		return strategy.Decision{Symbol: symbol, Direction: dir}
	}
	return strategy.Decision{Symbol: symbol, Direction: r.dir, Reason: "fixed"}
}
