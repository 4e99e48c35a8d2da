package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDMSession struct {
	openErr error
	sendErr error

	openedFor string
	sentTo    string
	sent      string
}

func (f *fakeDMSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.openedFor = recipientID
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeDMSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sentTo = channelID
	f.sent = content
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestNotifierSendsDirectMessage(t *testing.T) {
	session := &fakeDMSession{}
	n := &Notifier{session: session}

	require.NoError(t, n.Notify(context.Background(), "D1", "Linked to Aria."))
	assert.Equal(t, "D1", session.openedFor)
	assert.Equal(t, "dm-D1", session.sentTo)
	assert.Equal(t, "Linked to Aria.", session.sent)
}

func TestNotifierReportsFailures(t *testing.T) {
	closed := errors.New("cannot send messages to this user")

	err := (&Notifier{session: &fakeDMSession{openErr: closed}}).Notify(context.Background(), "D1", "hi")
	assert.ErrorIs(t, err, closed)

	err = (&Notifier{session: &fakeDMSession{sendErr: closed}}).Notify(context.Background(), "D1", "hi")
	assert.ErrorIs(t, err, closed)
}
