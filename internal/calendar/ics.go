// Package calendar exports finalized events as iCalendar documents.
package calendar

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/mmynk/hangout/internal/models"
)

// Duration is the length given to exported events, which only carry a
// start time.
const Duration = 2 * time.Hour

// ErrNotFinal is returned for events that have no final date yet.
var ErrNotFinal = errors.New("calendar: event is not finalized")

// BuildICS renders ev as a single-VEVENT calendar. url, if set, links back
// to the event page.
func BuildICS(ev *models.Event, url string) (string, error) {
	if ev.Status == models.StatusPolling || ev.FinalDateTime == nil {
		return "", ErrNotFinal
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//Hangout//Event Planner//EN")

	vev := cal.AddEvent(UID(ev.Code))
	vev.SetDtStampTime(time.Unix(ev.FinalizedAt, 0))
	vev.SetCreatedTime(time.Unix(ev.CreatedAt, 0))
	vev.SetModifiedAt(time.Unix(ev.UpdatedAt, 0))
	vev.SetStartAt(*ev.FinalDateTime)
	vev.SetEndAt(ev.FinalDateTime.Add(Duration))
	vev.SetSummary(ev.Title)
	if ev.FinalLocation != nil && *ev.FinalLocation != "" {
		vev.SetLocation(*ev.FinalLocation)
	}
	vev.SetDescription(description(ev))
	if url != "" {
		vev.SetURL(url)
	}

	return cal.Serialize(), nil
}

// UID is the stable calendar identifier of an event, so re-imports update
// instead of duplicating.
func UID(code string) string {
	return strings.ToLower(code) + "@hangout"
}

func description(ev *models.Event) string {
	var b strings.Builder
	if ev.Description != "" {
		b.WriteString(ev.Description)
		b.WriteString("\n\n")
	}
	names := make([]string, 0, len(ev.Members))
	for _, m := range ev.Members {
		names = append(names, m.Name)
	}
	b.WriteString("Going: ")
	b.WriteString(strings.Join(names, ", "))
	return b.String()
}
