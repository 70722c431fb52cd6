package models

import (
	"strings"

	"github.com/pkg/errors"
)

// Direction: решение стратегии. HOLD никогда не становится позицией.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionHold  Direction = "HOLD"
)

// Side: сторона ордера на бирже.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite: сторона закрывающего ордера.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// PositionSide: сторона открытой позиции.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// EntrySide: LONG -> BUY, SHORT -> SELL.
func (p PositionSide) EntrySide() Side {
	if p == PositionShort {
		return SideSell
	}
	return SideBuy
}

// ExitSide: противоположная входу сторона.
func (p PositionSide) ExitSide() Side { return p.EntrySide().Opposite() }

// PositionSideOf переводит решение в сторону позиции; для HOLD ok=false.
func PositionSideOf(d Direction) (PositionSide, bool) {
	switch d {
	case DirectionLong:
		return PositionLong, true
	case DirectionShort:
		return PositionShort, true
	default:
		return "", false
	}
}

// Mode: режим входа: авто по стратегии или принудительное направление.
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeForceLong  Mode = "long"
	ModeForceShort Mode = "short"
)

// ParseMode строго разбирает режим; пустая строка = auto.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return ModeAuto, nil
	case "long":
		return ModeForceLong, nil
	case "short":
		return ModeForceShort, nil
	default:
		return "", errors.Wrapf(ErrInvalidParameter, "unknown mode %q", raw)
	}
}

// Valid: только точные значения констант; "LONG" сначала через ParseMode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeForceLong, ModeForceShort:
		return true
	default:
		return false
	}
}

// Forced возвращает принудительное направление, если режим не auto.
func (m Mode) Forced() (Direction, bool) {
	switch m {
	case ModeForceLong:
		return DirectionLong, true
	case ModeForceShort:
		return DirectionShort, true
	default:
		return DirectionHold, false
	}
}
