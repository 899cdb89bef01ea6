package service

import (
	"context"
	"time"

	"macd_scanner/internal/models"
	"macd_scanner/internal/modules/config"
	"macd_scanner/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Telegram — исходящий канал алертов. Одно сообщение на непустой батч.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot:    b,
		chatID: cfg.Telegram.ChatID,
	}, nil
}

func (t *Telegram) SendBatch(_ context.Context, scannedAt time.Time, events []models.TransitionEvent) error {
	msg := tgbot.NewMessage(t.chatID, FormatBatch(scannedAt, events))
	msg.ParseMode = tgbot.ModeMarkdown

	kb := BatchKeyboard(events)
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}

	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(models.ErrDispatchFailure, err.Error())
	}
	return nil
}

// Stdout — заглушка без токена: всё в лог, отправка всегда успешна.
type Stdout struct{}

func NewStdout() *Stdout {
	return &Stdout{}
}

func (s *Stdout) SendBatch(_ context.Context, scannedAt time.Time, events []models.TransitionEvent) error {
	logger.Info("ALERT (stdout):\n%s", FormatBatch(scannedAt, events))
	return nil
}
