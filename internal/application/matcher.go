package application

import (
	"fmt"
	"regexp"
	"time"

	"gamelink/internal/models"
)

// Matcher extracts link codes from chat. The text must be exactly the
// prefix followed by the code digits: case-sensitive, no trimming.
type Matcher struct {
	channelID int64
	pattern   *regexp.Regexp
}

func NewMatcher(prefix string, length int, channelID int64) *Matcher {
	return &Matcher{
		channelID: channelID,
		pattern:   regexp.MustCompile(fmt.Sprintf(`^%s([0-9]{%d})$`, regexp.QuoteMeta(prefix), length)),
	}
}

// Match reports the code carried by ev. Events outside the linking channel
// or older than since are never eligible.
func (m *Matcher) Match(ev models.ChatEvent, since time.Time) (string, bool) {
	if ev.ChannelID != m.channelID || ev.At().Before(since) {
		return "", false
	}
	sub := m.pattern.FindStringSubmatch(ev.Text)
	if sub == nil {
		return "", false
	}
	return sub[1], true
}
