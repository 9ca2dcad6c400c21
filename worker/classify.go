package worker

import (
	"strings"

	"github.com/menuwatch/menuwatch/models"
)

// maxRawErrorLen bounds how much of an unrecognized error leaks into a
// user-facing message.
const maxRawErrorLen = 200

var (
	timeoutPhrases = []string{"timeout", "timed out", "deadline exceeded"}
	networkPhrases = []string{
		"connection refused", "connection reset", "no such host",
		"network is unreachable", "tls handshake", "dial tcp", "eof",
	}
	browserPhrases = []string{
		"target closed", "session closed", "browser has been closed",
		"page closed", "context closed", "protocol error", "websocket",
	}
)

// userFacingMessage maps an internal scrape error to the message stored
// on the job and shown to API callers. Known failure classes get fixed
// wording; anything else passes through truncated.
func userFacingMessage(err error) string {
	if err == nil {
		return ""
	}

	switch models.CodeOf(err) {
	case models.ErrCodeTimeout:
		return "The scrape took too long and was stopped. The site may be slow or blocking automated access."
	case models.ErrCodeRateLimited:
		return "The browser provider is rate limiting requests. Try again in a few minutes."
	case models.ErrCodeSessionExpired:
		return "The browser session kept expiring before the page could be captured. Try again shortly."
	case models.ErrCodeConnection:
		return "Could not connect to the browser service. Check connectivity and credentials."
	}

	lower := strings.ToLower(err.Error())
	switch {
	case containsAny(lower, timeoutPhrases):
		return "The scrape took too long and was stopped. The site may be slow or blocking automated access."
	case containsAny(lower, networkPhrases):
		return "A network error interrupted the scrape. Check connectivity and try again."
	case containsAny(lower, browserPhrases):
		return "The browser session ended unexpectedly during the scrape. Try again shortly."
	}

	msg := err.Error()
	if len(msg) > maxRawErrorLen {
		msg = msg[:maxRawErrorLen]
	}
	return msg
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
