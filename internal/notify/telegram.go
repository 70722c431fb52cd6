package notify

import (
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender: то, что нужно от бота для отправки.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram: пассивный нотифайер в один чат. Пересылает строки лога
// и итоги сделок, тики и смены состояния не шлёт.
type Telegram struct {
	bot    Sender
	chatID int64
}

func NewTelegram(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 || msg == "" {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) Publish(ev Event) {
	switch ev.Kind {
	case KindLog:
		if ev.Symbol != "" {
			t.Send(fmt.Sprintf("[%s] %s", ev.Symbol, ev.Text))
			return
		}
		t.Send(ev.Text)
	case KindLedger:
		t.Send(fmt.Sprintf("📒 %s: сделка закрыта, %+.2f%%", ev.Symbol, ev.PnL))
	}
}
