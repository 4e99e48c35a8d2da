package application

import "time"

const (
	// Background work limits
	sweepTimeout  = 30 * time.Second
	notifyTimeout = 10 * time.Second

	// Roster export
	rosterSheetTitle = "Linked Players"
	rosterClearRange = "A1:Z5000"
	rosterStartCell  = "A1"
	excelSheetName   = "Linked"
	excelTimeLayout  = "2006-01-02 15:04:05"
)

// Messages delivered to requesters
const (
	msgAlreadyLinked = "This account is already linked. Unlink it before linking again."
	msgLinkFailed    = "Linking failed, please request a new code and try again."
)
