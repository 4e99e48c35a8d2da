package discord

import "github.com/bwmarrin/discordgo"

func (b *Bot) addCommands(commands ...*discordgo.ApplicationCommand) {
	b.commands = append(b.commands, commands...)
}

func (b *Bot) newLinkCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        cmdLink,
		Description: "Get a code to link your Discord account to your game character",
	}
}

func (b *Bot) newLinkStatusCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        cmdLinkStatus,
		Description: "Show the game character linked to your account",
	}
}

func (b *Bot) newExportLinksCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        cmdExportLinks,
		Description: "Export linked players to Excel (admins only)",
	}
}

func (b *Bot) newSyncRosterCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        cmdSyncRoster,
		Description: "Mirror linked players to Google Sheets (admins only)",
	}
}
