package discord

import "time"

const (
	// Command names
	cmdLink        = "link"
	cmdLinkStatus  = "link_status"
	cmdExportLinks = "export_links"
	cmdSyncRoster  = "sync_roster"

	// Request limits
	commandTimeout = 10 * time.Second
	exportTimeout  = 60 * time.Second

	// Embed colors
	colorGreen = 0x2ECC71 // Linked
	colorBlue  = 0x3498DB // Code issued

	exportFileName = "linked_players.xlsx"
)

// User-facing replies
const (
	msgNoPermission     = "You do not have permission to use this command."
	msgAlreadyLinked    = "Your Discord account is already linked to **%s**."
	msgLinkUnavailable  = "Linking is temporarily unavailable, please try again later."
	msgRequestFailed    = "Something went wrong, please try again."
	msgNotLinked        = "Your account is not linked yet. Use `/link` to get a code."
	msgExportReady      = "Linked players export is ready."
	msgExportFailed     = "Export failed: %s"
	msgSyncDone         = "Roster synced.\nLink: %s"
	msgSyncFailed       = "Roster sync failed: %s"
	msgSheetsDisabled   = "Google Sheets is not configured for this bot."
	msgUnknownRequester = "Could not identify your account."
)
