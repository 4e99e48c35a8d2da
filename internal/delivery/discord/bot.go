package discord

import (
	"context"

	"gamelink/internal/application"
	"gamelink/pkg/config"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	session  *discordgo.Session
	services *application.Service
	logger   application.Logger

	adminIDs   map[string]struct{}
	guildID    string
	codePrefix string
	channelID  int64
	commands   []*discordgo.ApplicationCommand
}

func NewBot(session *discordgo.Session, cfg *config.Config, services *application.Service, logger application.Logger) *Bot {
	b := &Bot{
		session:    session,
		services:   services,
		logger:     logger,
		adminIDs:   parseAdminIDs(cfg.AdminUserIDs),
		guildID:    cfg.DiscordGuildID,
		codePrefix: cfg.Link.CodePrefix,
		channelID:  cfg.Link.ChannelID,
	}

	b.addCommands(
		b.newLinkCommand(),
		b.newLinkStatusCommand(),
		b.newExportLinksCommand(),
		b.newSyncRosterCommand(),
	)
	return b
}

func (b *Bot) Init() error {
	b.session.AddHandler(b.onInteraction)
	return nil
}

func (b *Bot) Run(ctx context.Context) {
	if err := b.session.Open(); err != nil {
		b.logger.Error("Failed to open Discord session: %v", err)
		return
	}

	b.logger.Info("Discord bot started, registering slash commands...")

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, b.commands)
	if err != nil {
		b.logger.Error("Failed to register commands: %v", err)
		return
	}
	b.logger.Info("Registered %d slash commands", len(b.commands))
}

func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.logger.Warn("Failed to close Discord session: %v", err)
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case cmdLink:
		b.handleLink(s, i.Interaction)
	case cmdLinkStatus:
		b.handleLinkStatus(s, i.Interaction)
	case cmdExportLinks:
		b.ensureAdmin(s, i.Interaction, b.handleExportLinks)
	case cmdSyncRoster:
		b.ensureAdmin(s, i.Interaction, b.handleSyncRoster)
	}
}
