package journal

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"futures_bot/pkg/db"
)

const createTradesSQL = `
CREATE TABLE IF NOT EXISTS trades (
	id          UUID PRIMARY KEY,
	symbol      TEXT        NOT NULL,
	side        TEXT        NOT NULL,
	entry_price NUMERIC     NOT NULL,
	exit_price  NUMERIC     NOT NULL,
	quantity    NUMERIC     NOT NULL,
	leverage    INTEGER     NOT NULL,
	pnl_percent NUMERIC     NOT NULL,
	reason      TEXT        NOT NULL,
	opened_at   TIMESTAMPTZ NOT NULL,
	closed_at   TIMESTAMPTZ NOT NULL
)`

const insertTradeSQL = `
INSERT INTO trades (id, symbol, side, entry_price, exit_price, quantity, leverage, pnl_percent, reason, opened_at, closed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Pg пишет сделки в таблицу trades.
type Pg struct {
	tx  db.TxManager
	log *zap.Logger
}

func NewPg(tx db.TxManager, log *zap.Logger) *Pg {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pg{tx: tx, log: log}
}

// Migrate создаёт таблицу, если её нет.
func (p *Pg) Migrate(ctx context.Context) error {
	_, err := p.tx.Conn().Exec(ctx, createTradesSQL)
	return errors.Wrap(err, "create trades table")
}

func (p *Pg) Record(ctx context.Context, t Trade) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := p.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertTradeSQL,
			t.ID, t.Symbol, string(t.Side), t.EntryPrice, t.ExitPrice, t.Quantity,
			t.Leverage, t.PnLPercent, t.Reason, t.OpenedAt, t.ClosedAt)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "journal trade %s", t.ID)
	}
	p.log.Debug("trade journaled", zap.String("id", t.ID.String()), zap.String("symbol", t.Symbol))
	return nil
}
