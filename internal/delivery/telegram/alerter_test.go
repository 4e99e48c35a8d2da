package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

type fakeSender struct {
	failFor map[int64]error
	sent    []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if err := f.failFor[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestAlerterSendsToEveryChat(t *testing.T) {
	bot := &fakeSender{}
	a := &Alerter{bot: bot, chatIDs: []int64{10, 20}, logger: nopLogger{}, hostname: "node-1"}

	require.NoError(t, a.Alert("code space exhausted"))
	require.Len(t, bot.sent, 2)
	assert.Equal(t, int64(10), bot.sent[0].ChatID)
	assert.Equal(t, int64(20), bot.sent[1].ChatID)
	assert.Equal(t, "⚠️ gamelink alert (node-1)\ncode space exhausted", bot.sent[0].Text)
}

func TestAlerterContinuesAfterFailedChat(t *testing.T) {
	blocked := errors.New("bot was blocked by the user")
	bot := &fakeSender{failFor: map[int64]error{10: blocked}}
	a := &Alerter{bot: bot, chatIDs: []int64{10, 20}, logger: nopLogger{}}

	err := a.Alert("code space exhausted")
	assert.ErrorIs(t, err, blocked)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(20), bot.sent[0].ChatID)
	assert.Equal(t, "⚠️ gamelink alert\ncode space exhausted", bot.sent[0].Text)
}
