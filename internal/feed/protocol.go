package feed

import (
	"encoding/json"
	"strings"
)

const (
	msgSubscribe          = "subscribe"
	msgUnsubscribe        = "unsubscribe"
	msgSubscribeApplied   = "subscribe_applied"
	msgTransactionUpdate  = "transaction_update"
	msgUnsubscribeApplied = "unsubscribe_applied"
	msgSubscriptionError  = "subscription_error"
)

type clientMessage struct {
	Type    string `json:"type"`
	QueryID uint32 `json:"query_id"`
	Query   string `json:"query,omitempty"`
}

type serverMessage struct {
	Type    string            `json:"type"`
	QueryID uint32            `json:"query_id"`
	Rows    []json.RawMessage `json:"rows,omitempty"`
	Inserts []json.RawMessage `json:"inserts,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Quote renders s as a single-quoted SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
