package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type dmSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers link outcomes to requesters as direct messages.
type Notifier struct {
	session dmSession
}

func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

func (n *Notifier) Notify(ctx context.Context, requesterID, message string) error {
	channel, err := n.session.UserChannelCreate(requesterID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM with %s: %w", requesterID, err)
	}

	if _, err := n.session.ChannelMessageSend(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", requesterID, err)
	}
	return nil
}
