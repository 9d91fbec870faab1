package middleware

import (
	tele "gopkg.in/telebot.v4"
)

// IsAdmin reports whether the update's sender is the configured admin.
// A zero adminID disables the check and admits everyone.
// Per-handler admin enforcement lives in the dispatch layer, driven by
// handler metadata.
func IsAdmin(c tele.Context, adminID int64) bool {
	if adminID == 0 {
		return true
	}
	u := c.Sender()
	return u != nil && u.ID == adminID
}
