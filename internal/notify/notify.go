// Package notify: доставка уведомлений пользователям в Telegram.
package notify

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/tutor-platform/internal/metrics"
	"github.com/Spok95/tutor-platform/internal/observability"
)

type Notifier interface {
	Notify(ctx context.Context, chatID int64, kind, text string) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot sender
	log *zap.Logger
}

func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info("telegram notifier ready", zap.String("bot", bot.Self.UserName))
	return &Telegram{bot: bot, log: log}, nil
}

// Notify отправляет текст в чат. kind: метка для метрики notifications_sent_total.
func (t *Telegram) Notify(ctx context.Context, chatID int64, kind, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		if isSystemErr(err) {
			observability.CaptureErrCtx(ctx, err)
		}
		return err
	}
	metrics.NotificationsSent.WithLabelValues(kind).Inc()
	return nil
}

// Считаем системными: 5xx, 429, timeout. 400-ки (chat not found, bad request) в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, marker := range []string{"429", "Too Many Requests", "500", "502", "503", "504", "timeout"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// Nop: уведомления выключены (BOT_TOKEN не задан); пишет в лог на уровне debug.
type Nop struct {
	Log *zap.Logger
}

func (n Nop) Notify(_ context.Context, chatID int64, kind, _ string) error {
	if n.Log != nil {
		n.Log.Debug("notification skipped", zap.Int64("chat_id", chatID), zap.String("kind", kind))
	}
	return nil
}

// Broadcast шлёт одно сообщение в несколько чатов; ошибки отдельных чатов логируются.
func Broadcast(ctx context.Context, n Notifier, log *zap.Logger, chatIDs []int64, kind, text string) int {
	sent := 0
	for _, id := range chatIDs {
		if err := n.Notify(ctx, id, kind, text); err != nil {
			log.Warn("broadcast failed", zap.Int64("chat_id", id), zap.String("kind", kind), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
