package telegram

import (
	"errors"
	"fmt"

	"gamelink/internal/application"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Alerter forwards operator alerts to the configured admin chats.
type Alerter struct {
	bot      sender
	chatIDs  []int64
	logger   application.Logger
	hostname string
}

func NewAlerter(token string, chatIDs []int64, hostname string, logger application.Logger) (*Alerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram alerts authorized on account %s for %d chats", bot.Self.UserName, len(chatIDs))

	return &Alerter{
		bot:      bot,
		chatIDs:  chatIDs,
		logger:   logger,
		hostname: hostname,
	}, nil
}

// Alert sends message to every admin chat. One failing chat does not stop
// delivery to the others.
func (a *Alerter) Alert(message string) error {
	text := formatAlert(a.hostname, message)

	var errs []error
	for _, chatID := range a.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := a.bot.Send(msg); err != nil {
			a.logger.Warn("Failed to send alert to chat %d: %v", chatID, err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func formatAlert(hostname, message string) string {
	if hostname == "" {
		return "⚠️ gamelink alert\n" + message
	}
	return fmt.Sprintf("⚠️ gamelink alert (%s)\n%s", hostname, message)
}
