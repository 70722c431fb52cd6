package service

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	presenter "futures_bot/internal/modules/presenter/service"
)

const (
	btnStatus   = "📊 Статус"
	btnStop     = "⏹ Остановить"
	btnCalendar = "📅 Календарь"
)

const helpText = "*Команды*\n\n" +
	"`/trade SYMBOL AMOUNT LEVERAGE [auto|long|short]` — старт\n" +
	"`/stop [SYMBOL]` — закрыть позицию (без символа — все)\n" +
	"`/status` — баланс, доходность, состояния\n" +
	"`/calendar` `/prev` `/next` — календарь PnL"

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	// обслуживаем только свой чат
	if msg.Chat.ID != t.chatID {
		t.log.Warn("telegram: foreign chat ignored", zap.Int64("chat_id", msg.Chat.ID))
		return
	}

	if msg.IsCommand() {
		t.handleCommand(ctx, msg.Command(), strings.Fields(msg.CommandArguments()))
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case btnStatus:
		t.handleCommand(ctx, "status", nil)
	case btnStop:
		t.handleCommand(ctx, "stop", nil)
	case btnCalendar:
		t.handleCommand(ctx, "calendar", nil)
	}
}

func (t *Telegram) handleCommand(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "start", "help":
		t.sendHelp()

	case "trade":
		if len(args) < 3 {
			t.Send("Формат: /trade SYMBOL AMOUNT LEVERAGE [auto|long|short]")
			return
		}
		c := presenter.StartTrading{
			Symbol:   args[0],
			Amount:   normNumber(args[1]),
			Leverage: args[2],
		}
		if len(args) > 3 {
			c.Mode = args[3]
		}
		if err := t.presenter.Handle(ctx, c); err != nil {
			t.log.Info("trade command rejected", zap.Error(err))
		}

	case "stop":
		c := presenter.StopTrading{}
		if len(args) > 0 {
			c.Symbol = args[0]
		}
		if err := t.presenter.Handle(ctx, c); err != nil {
			t.log.Info("stop command rejected", zap.Error(err))
		}

	case "status":
		t.Send(formatStatus(t.presenter.View()))

	case "calendar":
		_ = t.presenter.Handle(ctx, presenter.NavigateMonth{Direction: 0})
		t.sendCalendar()
	case "prev":
		_ = t.presenter.Handle(ctx, presenter.NavigateMonth{Direction: -1})
		t.sendCalendar()
	case "next":
		_ = t.presenter.Handle(ctx, presenter.NavigateMonth{Direction: 1})
		t.sendCalendar()

	default:
		t.Send("Неизвестная команда, /help")
	}
}

func (t *Telegram) sendHelp() {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStatus),
			tgbotapi.NewKeyboardButton(btnStop),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCalendar),
		),
	)
	msg := tgbotapi.NewMessage(t.chatID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) sendCalendar() {
	t.sendMarkdown("```\n" + formatCalendar(t.presenter.View()) + "```")
}

