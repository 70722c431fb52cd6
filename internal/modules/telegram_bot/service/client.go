package service

import (
	"context"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"futures_bot/internal/modules/config"
	presenter "futures_bot/internal/modules/presenter/service"
	"futures_bot/internal/notify"
)

// Bot: часть tgbot.BotAPI, которой пользуемся.
type Bot interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Presenter: команды и вид для фронта.
type Presenter interface {
	Handle(ctx context.Context, cmd presenter.Command) error
	View() presenter.View
	Subscribe(fn func(presenter.View, notify.Event))
}

// Telegram: фронт оператора в одном чате.
type Telegram struct {
	bot       Bot
	chatID    int64
	presenter Presenter
	out       *notify.Telegram
	log       *zap.Logger
}

// NewTelegram: без токена бот выключен (nil, nil).
func NewTelegram(cfg *config.Config, p Presenter, log *zap.Logger) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		log.Info("telegram disabled: no token")
		return nil, nil
	}
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return New(b, cfg.Telegram.ChatID, p, log), nil
}

func New(bot Bot, chatID int64, p Presenter, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{
		bot:       bot,
		chatID:    chatID,
		presenter: p,
		out:       notify.NewTelegram(bot, chatID),
		log:       log,
	}
}

func (t *Telegram) Send(msg string) { t.out.Send(msg) }

func (t *Telegram) sendMarkdown(text string) {
	msg := tgbot.NewMessage(t.chatID, text)
	msg.ParseMode = tgbot.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

// Start: подписка на события презентера + long-polling команд.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	t.presenter.Subscribe(func(_ presenter.View, ev notify.Event) {
		t.out.Publish(ev)
	})

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, upd)
			}
		}
	}()
	t.log.Info("telegram started", zap.Int64("chat_id", t.chatID))
	return nil
}

func (t *Telegram) Stop() {
	if t == nil || t.bot == nil {
		return
	}
	t.bot.StopReceivingUpdates()
}
