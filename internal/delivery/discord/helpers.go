package discord

import (
	"fmt"
	"strings"

	"gamelink/internal/models"

	"github.com/bwmarrin/discordgo"
)

// interactionUser returns the invoking user for both guild and DM interactions.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func parseAdminIDs(ids []string) map[string]struct{} {
	admins := make(map[string]struct{})
	for _, id := range ids {
		cleanID := strings.TrimSpace(id)
		if cleanID != "" {
			admins[cleanID] = struct{}{}
		}
	}
	return admins
}

func codeEmbed(prefix string, channelID int64, link *models.PendingLink) *discordgo.MessageEmbed {
	chatText := prefix + link.Code
	return &discordgo.MessageEmbed{
		Title:       "Link your game character",
		Description: fmt.Sprintf("Post this exact message in in-game chat channel %d:\n```%s```", channelID, chatText),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Code", Value: fmt.Sprintf("`%s`", chatText), Inline: true},
			{Name: "Expires", Value: fmt.Sprintf("<t:%d:R>", link.ExpiresAt.Unix()), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Case-sensitive, nothing before or after the code"},
	}
}

func statusEmbed(linked *models.LinkedIdentity) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Linked character",
		Color: colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Character", Value: valueOrDefault(linked.Username, "Unknown"), Inline: true},
			{Name: "Entity ID", Value: fmt.Sprintf("`%s`", linked.EntityID), Inline: true},
			{Name: "Linked", Value: fmt.Sprintf("<t:%d:f>", linked.LinkedAt.Unix()), Inline: false},
		},
	}
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
