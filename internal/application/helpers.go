package application

import (
	"fmt"

	"gamelink/internal/feed"
)

func linkedMessage(username string) string {
	return fmt.Sprintf("Linked to %s.", username)
}

func lookupQuery(table, username string) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE username = %s", table, feed.Quote(username))
}
