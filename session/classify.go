package session

import "strings"

// sessionExpiredPatterns are the signatures a dying browser connection
// leaves in error text: the provider killed the session, the websocket
// dropped, or the page's target vanished mid-call. They are matched
// case-insensitively against the whole error chain's message.
var sessionExpiredPatterns = []string{
	"target closed",
	"protocol error",
	"session closed",
	"browser has been closed",
	"connection closed",
	"page closed",
	"context closed",
	"websocket error",
	"net::err_connection_closed",
	"use of closed network connection",
	"cdp error",
}

// IsSessionExpired reports whether an operation error indicates the
// underlying browser session died, as opposed to an ordinary failure.
// This is the single source of truth for the retry decision in
// Manager.WithRetry.
func IsSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range sessionExpiredPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
