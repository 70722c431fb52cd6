package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StartRequest: параметры команды запуска торговли.
type StartRequest struct {
	Symbol   string
	Amount   float64 // USDT
	Leverage int
	Mode     Mode
}

// Validate проверяет то, что можно проверить без биржи.
func (r StartRequest) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return errors.Wrap(ErrInvalidParameter, "symbol is empty")
	}
	if !(r.Amount > 0) || math.IsInf(r.Amount, 1) {
		return errors.Wrapf(ErrInvalidParameter, "amount must be positive, got %v", r.Amount)
	}
	if r.Leverage < 1 {
		return errors.Wrapf(ErrInvalidParameter, "leverage must be >= 1, got %d", r.Leverage)
	}
	if !r.Mode.Valid() {
		return errors.Wrapf(ErrInvalidParameter, "unknown mode %q", r.Mode)
	}
	return nil
}

// ParseStartRequest разбирает текстовый ввод оператора.
func ParseStartRequest(symbol, amount, leverage, mode string) (StartRequest, error) {
	amt, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return StartRequest{}, errors.Wrapf(ErrInvalidParameter, "amount %q", amount)
	}
	lev, err := strconv.Atoi(strings.TrimSpace(leverage))
	if err != nil {
		return StartRequest{}, errors.Wrapf(ErrInvalidParameter, "leverage %q", leverage)
	}
	m, err := ParseMode(mode)
	if err != nil {
		return StartRequest{}, err
	}
	req := StartRequest{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Amount:   amt,
		Leverage: lev,
		Mode:     m,
	}
	return req, req.Validate()
}
