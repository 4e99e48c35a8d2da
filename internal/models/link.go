package models

import (
	"encoding/json"
	"time"
)

// PendingLink is an outstanding request to link a Discord account, keyed by requester.
type PendingLink struct {
	RequesterID string    `json:"requester_id" db:"requester_id"`
	Code        string    `json:"code" db:"code"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
}

func (p *PendingLink) Active(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

type LinkedIdentity struct {
	EntityID    string    `json:"entity_id" db:"entity_id"`
	RequesterID string    `json:"requester_id" db:"requester_id"`
	Username    string    `json:"username" db:"username"`
	LinkedAt    time.Time `json:"linked_at" db:"linked_at"`
}

// ChatEvent is a row of the game's chat table. Timestamp is in microseconds since the epoch.
type ChatEvent struct {
	ChannelID int64  `json:"channel_id"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	Text      string `json:"text"`
}

func (e ChatEvent) At() time.Time {
	return time.UnixMicro(e.Timestamp)
}

type PlayerIdentity struct {
	EntityID json.Number `json:"entity_id"`
	Username string      `json:"username"`
}
