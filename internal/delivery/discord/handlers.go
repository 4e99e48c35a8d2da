package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"gamelink/internal/application"
	"gamelink/internal/repository"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleLink(s *discordgo.Session, i *discordgo.Interaction) {
	user := interactionUser(i)
	if user == nil {
		b.respondMessage(s, i, msgUnknownRequester, true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	link, err := b.services.LinkService.RequestCode(ctx, user.ID)
	switch {
	case errors.Is(err, repository.ErrAlreadyLinked):
		existing, _ := b.services.LinkService.GetLinkedIdentity(ctx, user.ID)
		name := "another character"
		if existing != nil {
			name = existing.Username
		}
		b.respondMessage(s, i, fmt.Sprintf(msgAlreadyLinked, name), true)
		return
	case errors.Is(err, application.ErrCodeSpaceExhausted):
		b.respondMessage(s, i, msgLinkUnavailable, true)
		return
	case err != nil:
		b.logger.Error("Failed to issue link code for %s: %v", user.ID, err)
		b.respondMessage(s, i, msgRequestFailed, true)
		return
	}

	b.respondEmbed(s, i, codeEmbed(b.codePrefix, b.channelID, link))
}

func (b *Bot) handleLinkStatus(s *discordgo.Session, i *discordgo.Interaction) {
	user := interactionUser(i)
	if user == nil {
		b.respondMessage(s, i, msgUnknownRequester, true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	linked, err := b.services.LinkService.GetLinkedIdentity(ctx, user.ID)
	if err != nil {
		b.logger.Error("Failed to read link status of %s: %v", user.ID, err)
		b.respondMessage(s, i, msgRequestFailed, true)
		return
	}
	if linked == nil {
		b.respondMessage(s, i, msgNotLinked, true)
		return
	}

	b.respondEmbed(s, i, statusEmbed(linked))
}

func (b *Bot) handleExportLinks(s *discordgo.Session, i *discordgo.Interaction) {
	b.deferResponse(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	data, err := b.services.RosterService.ExportExcel(ctx)
	if err != nil {
		b.logger.Error("Export error: %v", err)
		b.editResponse(s, i, fmt.Sprintf(msgExportFailed, err.Error()))
		return
	}

	b.editResponse(s, i, msgExportReady, &discordgo.File{
		Name:        exportFileName,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Reader:      bytes.NewReader(data),
	})
}

func (b *Bot) handleSyncRoster(s *discordgo.Session, i *discordgo.Interaction) {
	b.deferResponse(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	url, err := b.services.RosterService.SyncToSheet(ctx)
	switch {
	case errors.Is(err, application.ErrSheetsNotConfigured):
		b.editResponse(s, i, msgSheetsDisabled)
	case err != nil:
		b.logger.Error("Roster sync error: %v", err)
		b.editResponse(s, i, fmt.Sprintf(msgSyncFailed, err.Error()))
	default:
		b.editResponse(s, i, fmt.Sprintf(msgSyncDone, url))
	}
}
