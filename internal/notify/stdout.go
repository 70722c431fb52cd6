package notify

import (
	"fmt"

	"go.uber.org/zap"
)

// Stdout: нотифайер без UI: всё уходит в лог.
type Stdout struct {
	log *zap.Logger
}

func NewStdout(log *zap.Logger) *Stdout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stdout{log: log}
}

func (s *Stdout) Send(msg string) { s.log.Info(msg) }

func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }

func (s *Stdout) Publish(ev Event) {
	switch ev.Kind {
	case KindLog:
		s.log.Info(ev.Text, zap.String("symbol", ev.Symbol))
	case KindTick:
		s.log.Debug("tick", zap.String("symbol", ev.Symbol), zap.Float64("price", ev.Price), zap.Float64("pnl", ev.PnL))
	default:
		s.log.Debug("event",
			zap.String("kind", string(ev.Kind)),
			zap.String("symbol", ev.Symbol),
			zap.String("state", ev.State),
			zap.Float64("balance", ev.Balance),
			zap.Float64("pnl", ev.PnL))
	}
}
