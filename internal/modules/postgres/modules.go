package postgres

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/journal"
	"futures_bot/internal/modules/config"
	"futures_bot/pkg/db"
)

// NewJournal: без DSN журнал сделок выключен (Nop).
func NewJournal(ctx context.Context, lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (journal.Journal, error) {
	if cfg.DB == "" {
		log.Info("trade journal disabled: no db dsn")
		return journal.Nop{}, nil
	}

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create poolMaster")
	}

	tm := db.NewPgTxManager(poolMaster)
	if err := tm.Ping(ctx); err != nil {
		tm.Close()
		return nil, err
	}

	pg := journal.NewPg(tm, log.Named("journal"))
	if err := pg.Migrate(ctx); err != nil {
		tm.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tm.Close()
			return nil
		},
	})
	log.Info("📒 trade journal: postgres")
	return pg, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(NewJournal),
	)
}
