package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidParameter: некорректная сумма/плечо/режим, исправляется оператором.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInsufficientBalance: сумма больше баланса.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientData: мало точек для индикатора.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrExchange: любая ошибка шлюза биржи.
	ErrExchange = errors.New("exchange error")
	// ErrAlreadyRunning: по символу уже крутится цикл.
	ErrAlreadyRunning = errors.New("trading already running")
	// ErrNotRunning: нечего останавливать.
	ErrNotRunning = errors.New("trading not running")
	// ErrNoOpenPosition: на бирже нет количества для закрытия.
	ErrNoOpenPosition = errors.New("no open position")
)

// ExchangeError оборачивает ошибку вызова шлюза с именем операции.
type ExchangeError struct {
	Op  string
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Is позволяет errors.Is(err, ErrExchange).
func (e *ExchangeError) Is(target error) bool { return target == ErrExchange }

// NewExchangeError: nil для nil.
func NewExchangeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExchangeError{Op: op, Err: err}
}
