package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"futures_bot/internal/models"
)

// Trade: закрытая сделка для аудита.
type Trade struct {
	ID         uuid.UUID
	Symbol     string
	Side       models.PositionSide
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	Leverage   int
	PnLPercent float64
	Reason     string
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// Journal: только запись; обратно в журнал PnL не читается.
type Journal interface {
	Record(ctx context.Context, t Trade) error
}

// Nop: журнал без базы.
type Nop struct{}

func (Nop) Record(context.Context, Trade) error { return nil }
