package strategy

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"futures_bot/internal/exchange"
	"futures_bot/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			func(cfg *config.Config, gw exchange.Gateway, log *zap.Logger) *Evaluator {
				s := cfg.Strategy
				return NewEvaluator(Config{
					Interval:   s.Interval,
					Limit:      s.Limit,
					RSIPeriod:  s.RSIPeriod,
					MACDShort:  s.MACDShort,
					MACDLong:   s.MACDLong,
					MACDSignal: s.MACDSignal,
					MAWindow:   s.MAWindow,
					RSILong:    s.RSILong,
					RSIShort:   s.RSIShort,

					CallTimeout: cfg.Trading.CallTimeout,
				}, gw, log.Named("strategy"))
			},
		),
	)
}
