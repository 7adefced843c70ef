package chatutil

import (
	"time"
)

// pendingPlaceholder stands in for a timestamp the storage layer has not
// assigned yet (a write still in flight) or one that is absent entirely.
const pendingPlaceholder = "..."

// FormatTimestamp renders a message or chat timestamp as an hour:minute
// string with a meridiem marker, e.g. "2:05 PM". A nil or zero value is a
// pending or absent server timestamp and renders as "...". Never fails.
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return pendingPlaceholder
	}
	return t.Format("3:04 PM")
}
