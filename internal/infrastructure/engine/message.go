package engine

import (
	"fmt"
	"unicode/utf8"
)

// maxMessageLen bounds step messages shown in tables.
const maxMessageLen = 200

func blockedMessage(failed string) string {
	return fmt.Sprintf("blocked: dependency '%s' did not complete", failed)
}

func failureMessage(msg string) string {
	if len(msg) <= maxMessageLen {
		return msg
	}
	n := maxMessageLen
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}
	return msg[:n] + "..."
}
