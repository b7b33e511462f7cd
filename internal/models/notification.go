package models

// NotificationKind distinguishes feed entries.
type NotificationKind string

const (
	NotificationFinal    NotificationKind = "FINAL"
	NotificationTomorrow NotificationKind = "TOMORROW"
)

// Notification is an in-app feed entry derived from an event's state.
// It is computed on read and never stored.
type Notification struct {
	// ID is stable per event and kind, e.g. "K7Q2ZD-FINAL".
	ID   string
	Kind NotificationKind
	Code string
	Text string
	// At is the Unix timestamp used for ordering (event last update).
	At int64
}
