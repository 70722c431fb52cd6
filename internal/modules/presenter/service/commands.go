package service

import (
	"strings"

	json "github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"futures_bot/internal/models"
)

// Command: команда оператора из любого фронта.
type Command interface {
	command()
}

// StartTrading: поля как ввёл оператор, разбираются в Handle.
type StartTrading struct {
	Symbol   string `json:"symbol"`
	Amount   string `json:"amount"`
	Leverage string `json:"leverage"`
	Mode     string `json:"mode"`
}

// StopTrading: пустой Symbol останавливает все активные символы.
type StopTrading struct {
	Symbol string `json:"symbol"`
}

// NavigateMonth: -1 назад, +1 вперёд, 0: текущий месяц.
type NavigateMonth struct {
	Direction int `json:"direction"`
}

func (StartTrading) command()  {}
func (StopTrading) command()   {}
func (NavigateMonth) command() {}

// DecodeCommand разбирает {"type": "start"|"stop"|"month", ...}.
func DecodeCommand(raw []byte) (Command, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrapf(models.ErrInvalidParameter, "decode command: %v", err)
	}

	var (
		cmd Command
		err error
	)
	switch strings.ToLower(env.Type) {
	case "start":
		var c StartTrading
		err = json.Unmarshal(raw, &c)
		cmd = c
	case "stop":
		var c StopTrading
		err = json.Unmarshal(raw, &c)
		cmd = c
	case "month":
		var c NavigateMonth
		err = json.Unmarshal(raw, &c)
		cmd = c
	default:
		return nil, errors.Wrapf(models.ErrInvalidParameter, "unknown command %q", env.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(models.ErrInvalidParameter, "decode %s command: %v", env.Type, err)
	}
	return cmd, nil
}
