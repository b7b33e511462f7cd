package planner

import (
	"fmt"
	"time"

	"github.com/mmynk/hangout/internal/models"
)

// ParseDeadline validates a deadline in models.DeadlineLayout.
func ParseDeadline(deadline string) (time.Time, error) {
	d, err := time.Parse(models.DeadlineLayout, deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: deadline %q must be YYYY-MM-DD", ErrValidation, deadline)
	}
	return d, nil
}

// DeadlineEnd returns the last instant of the deadline date (23:59:59 in loc).
// It returns false when the event has no deadline or it does not parse.
func DeadlineEnd(deadline string, loc *time.Location) (time.Time, bool) {
	if deadline == "" {
		return time.Time{}, false
	}
	d, err := ParseDeadline(deadline)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc), true
}

// DeadlinePassed reports whether now is strictly after the end of the
// event's deadline date. Events without a deadline never pass it.
func DeadlinePassed(ev *models.Event, now time.Time, loc *time.Location) bool {
	end, ok := DeadlineEnd(ev.Deadline, loc)
	if !ok {
		return false
	}
	return now.After(end)
}

// PollingOpen reports whether votes and new options are still accepted.
func PollingOpen(ev *models.Event, now time.Time, loc *time.Location) bool {
	return ev.Status == models.StatusPolling && !DeadlinePassed(ev, now, loc)
}

// MaybeFinalize moves a POLLING event whose deadline has passed to FINAL.
// It is meant to run whenever an event is read. The caller persists the
// event when it returns true.
func MaybeFinalize(ev *models.Event, now time.Time, loc *time.Location) bool {
	if ev.Status != models.StatusPolling {
		return false
	}
	if !DeadlinePassed(ev, now, loc) {
		return false
	}
	finalize(ev, now)
	return true
}

// FinalizeNow locks in the current winners regardless of the deadline.
// Finalization is one-shot: an event that already left POLLING is rejected
// with ErrPollingClosed so an announced decision cannot silently change.
// Checking that the actor is the owner is the caller's job.
func FinalizeNow(ev *models.Event, now time.Time) error {
	if ev.Status != models.StatusPolling {
		return fmt.Errorf("%w: event %s is already %s", ErrPollingClosed, ev.Code, ev.Status)
	}
	finalize(ev, now)
	return nil
}

// Selections computes the winning date and location from the current votes
// without touching the event. A nil result means the category has no options.
func Selections(ev *models.Event) (*time.Time, *string) {
	var (
		at    *time.Time
		label *string
	)
	if top, ok := Top(ev.DateOptions, Tally(ev.DateVotes)); ok {
		t := top.At
		at = &t
	}
	if top, ok := Top(ev.LocationOptions, Tally(ev.LocationVotes)); ok {
		l := top.Label
		label = &l
	}
	return at, label
}

func finalize(ev *models.Event, now time.Time) {
	at, label := Selections(ev)
	// A category without options keeps whatever it had.
	if at != nil {
		ev.FinalDateTime = at
	}
	if label != nil {
		ev.FinalLocation = label
	}
	ev.Status = models.StatusFinal
	ev.FinalizedAt = now.Unix()
	ev.UpdatedAt = now.Unix()
}
