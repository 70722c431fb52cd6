package exchange

import (
	"context"

	"futures_bot/internal/models"
)

// Gateway: всё, что цикл сделки делает с биржей.
type Gateway interface {
	USDTBalance(ctx context.Context) (float64, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	MarkPrice(ctx context.Context, symbol string) (float64, error)
	PlaceMarketOrder(ctx context.Context, symbol string, side models.Side, qty float64) (models.Fill, error)
	// OpenPositionQuantity: модуль размера открытой позиции, 0 если позиции нет.
	OpenPositionQuantity(ctx context.Context, symbol string) (float64, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}
