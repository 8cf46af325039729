package order

import "time"

// UrgencyThreshold is how long a request may wait in Pending before it is urgent.
const UrgencyThreshold = 15 * time.Minute

// DisplayTimePlaceholder is shown while a server-assigned time is unresolved.
const DisplayTimePlaceholder = "--:--"

// IsUrgent is true iff status is Pending and strictly more than
// UrgencyThreshold has elapsed since timestamp. Urgency flags stuck intake,
// so in-transit and delivered orders are never urgent.
func IsUrgent(status Status, timestamp, now time.Time) bool {
	if status != Pending || timestamp.IsZero() {
		return false
	}
	return now.Sub(timestamp) > UrgencyThreshold
}

// FormatDisplayTime renders timestamp as a 24h HH:MM clock time in loc.
// A nil loc means UTC.
func FormatDisplayTime(timestamp time.Time, loc *time.Location) string {
	if timestamp.IsZero() {
		return DisplayTimePlaceholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return timestamp.In(loc).Format("15:04")
}
