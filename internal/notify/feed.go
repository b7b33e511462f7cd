// Package notify derives member-facing notifications from event state:
// the in-app feed, daily email reminders and finalization announcements.
//
// Nothing in this package changes an event. Finalization is owned by the
// planner.
package notify

import (
	"cmp"
	"slices"
	"time"

	"github.com/mmynk/hangout/internal/models"
)

const dateLayout = "Mon, 02 Jan 2006 15:04 MST"

// BuildFeed returns the feed entries for the given events, newest first.
//
// A FINAL event yields a "final date selected" entry. An event whose final
// date is in the next 24 hours also yields a "starts tomorrow" entry.
func BuildFeed(tr *Translator, locale string, events []models.EventSummary, now time.Time) []models.Notification {
	var feed []models.Notification
	for _, ev := range events {
		data := map[string]any{"Title": ev.Title}
		if ev.Status == models.StatusFinal {
			feed = append(feed, models.Notification{
				ID:   ev.Code + "-" + string(models.NotificationFinal),
				Kind: models.NotificationFinal,
				Code: ev.Code,
				Text: tr.T(locale, "feed_final", data),
				At:   ev.UpdatedAt,
			})
		}
		if ev.FinalDateTime != nil {
			until := ev.FinalDateTime.Sub(now)
			if until > 0 && until <= 24*time.Hour {
				feed = append(feed, models.Notification{
					ID:   ev.Code + "-" + string(models.NotificationTomorrow),
					Kind: models.NotificationTomorrow,
					Code: ev.Code,
					Text: tr.T(locale, "feed_tomorrow", data),
					At:   ev.UpdatedAt,
				})
			}
		}
	}
	slices.SortStableFunc(feed, func(a, b models.Notification) int {
		return cmp.Compare(b.At, a.At)
	})
	return feed
}

// finalDetails formats the chosen date and location for display.
func finalDetails(tr *Translator, locale string, ev *models.Event, loc *time.Location) (date, location string) {
	date = tr.T(locale, "date_tba", nil)
	if ev.FinalDateTime != nil {
		date = ev.FinalDateTime.In(loc).Format(dateLayout)
	}
	location = tr.T(locale, "location_tba", nil)
	if ev.FinalLocation != nil && *ev.FinalLocation != "" {
		location = *ev.FinalLocation
	}
	return date, location
}
