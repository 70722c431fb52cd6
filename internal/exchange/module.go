package exchange

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			func(cfg *config.Config, log *zap.Logger) *Binance {
				return NewBinance(Options{
					APIKey:     cfg.Binance.APIKey,
					APISecret:  cfg.Binance.APISecret,
					BaseURL:    cfg.Binance.BaseURL,
					Testnet:    cfg.Binance.Testnet,
					RecvWindow: cfg.Binance.RecvWindow,
					Timeout:    cfg.Binance.Timeout,
				}, log.Named("binance"))
			},
			func(b *Binance) Gateway { return b },
		),
	)
}
