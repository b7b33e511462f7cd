// Package storagetest holds a behavioural test suite shared by every
// storage.Store implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/storage"
)

// Run exercises store. Each call should get a fresh, empty store.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	owner := models.NewUser("owner@example.com", "Owner", "hash")
	guest := models.NewUser("guest@example.com", "", "hash")
	guest.GoogleID = "google-sub-1"
	for _, u := range []*models.User{owner, guest} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", u.Email, err)
		}
	}

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		dup := models.NewUser("owner@example.com", "", "")
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}
	})

	t.Run("user lookups", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "guest@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != guest.ID || got.GoogleID != "google-sub-1" {
			t.Errorf("GetUserByEmail = %+v, want guest", got)
		}
		if !got.Notifications.Enabled || !got.Notifications.ReminderH1 {
			t.Errorf("Expected default notification prefs, got %+v", got.Notifications)
		}

		got, err = store.GetUserByGoogleID(ctx, "google-sub-1")
		if err != nil || got.ID != guest.ID {
			t.Errorf("GetUserByGoogleID = %v, %v", got, err)
		}

		if _, err := store.GetUserByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		users, err := store.GetUsersByIDs(ctx, []string{owner.ID, guest.ID, "missing"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("Expected 2 users, got %d", len(users))
		}
	})

	t.Run("UpdateUser persists settings", func(t *testing.T) {
		u, err := store.GetUserByID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		u.DisplayName = "Renamed"
		u.Photo = "https://example.com/a.png"
		u.Notifications.ReminderH3 = false
		if err := store.UpdateUser(ctx, u); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		got, err := store.GetUserByID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.DisplayName != "Renamed" || got.Photo != u.Photo || got.Notifications.ReminderH3 {
			t.Errorf("UpdateUser not persisted: %+v", got)
		}

		missing := *u
		missing.ID = "missing"
		missing.Email = "missing@example.com"
		if err := store.UpdateUser(ctx, &missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	ev := sampleEvent(owner, guest)

	t.Run("CreateEvent and GetEvent round trip", func(t *testing.T) {
		if err := store.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		got, err := store.GetEvent(ctx, ev.Code)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		assertEventEqual(t, got, ev)
	})

	t.Run("CreateEvent rejects duplicate code", func(t *testing.T) {
		dup := models.NewEvent(ev.Code, owner.ID, "Other")
		if err := store.CreateEvent(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}
	})

	t.Run("GetEvent returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetEvent(ctx, "NOPE00"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveEvent replaces the document", func(t *testing.T) {
		got, err := store.GetEvent(ctx, ev.Code)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		final := got.DateOptions[1].At
		label := got.LocationOptions[0].Label
		got.Status = models.StatusFinal
		got.FinalDateTime = &final
		got.FinalLocation = &label
		got.FinalizedAt = 1800000000
		got.DateVotes[got.Members[1].ID] = got.DateOptions[1].ID
		got.Messages = append(got.Messages, models.Message{
			ID: "msg-2", MemberID: got.Members[1].ID, UserID: guest.ID, Name: "guest", Text: "second", At: 1700000100,
		})
		got.Bill.Items = got.Bill.Items[:0]
		got.Bill.Total = 0

		if err := store.SaveEvent(ctx, got); err != nil {
			t.Fatalf("SaveEvent failed: %v", err)
		}
		reloaded, err := store.GetEvent(ctx, ev.Code)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		assertEventEqual(t, reloaded, got)
	})

	t.Run("SaveEvent returns ErrNotFound for unknown event", func(t *testing.T) {
		if err := store.SaveEvent(ctx, models.NewEvent("NOPE00", owner.ID, "x")); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListEventsByUser covers owned and joined", func(t *testing.T) {
		other := models.NewEvent("ZZZ999", guest.ID, "Guest's picnic")
		other.CreatedAt = ev.CreatedAt + 10
		other.Members = []models.Member{{ID: "mem-g2", UserID: guest.ID, Name: "guest", JoinedAt: other.CreatedAt}}
		if err := store.CreateEvent(ctx, other); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		guestEvents, err := store.ListEventsByUser(ctx, guest.ID)
		if err != nil {
			t.Fatalf("ListEventsByUser failed: %v", err)
		}
		if len(guestEvents) != 2 {
			t.Fatalf("Expected 2 events for guest, got %d", len(guestEvents))
		}
		if guestEvents[0].Code != "ZZZ999" {
			t.Errorf("Expected newest event first, got %s", guestEvents[0].Code)
		}

		ownerEvents, err := store.ListEventsByUser(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListEventsByUser failed: %v", err)
		}
		if len(ownerEvents) != 1 || ownerEvents[0].Code != ev.Code {
			t.Errorf("Expected only %s for owner, got %+v", ev.Code, ownerEvents)
		}
	})

	t.Run("ListFinalEvents filters by window", func(t *testing.T) {
		final := ev.DateOptions[1].At
		events, err := store.ListFinalEvents(ctx, final.Add(-time.Hour), final.Add(time.Hour))
		if err != nil {
			t.Fatalf("ListFinalEvents failed: %v", err)
		}
		if len(events) != 1 || events[0].Code != ev.Code {
			t.Fatalf("Expected %s in window, got %d events", ev.Code, len(events))
		}
		if len(events[0].Members) != 2 {
			t.Errorf("Expected members to be loaded, got %d", len(events[0].Members))
		}

		events, err = store.ListFinalEvents(ctx, final.Add(time.Hour), final.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("ListFinalEvents failed: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("Expected no events outside window, got %d", len(events))
		}
	})
}

func sampleEvent(owner, guest *models.User) *models.Event {
	ev := models.NewEvent("ABC123", owner.ID, "Team dinner")
	ev.Description = "End of quarter"
	ev.Deadline = "2026-11-01"
	ev.CreatedAt = 1700000000
	ev.UpdatedAt = 1700000000
	ev.Members = []models.Member{
		{ID: "mem-o", UserID: owner.ID, Name: "Owner", JoinedAt: 1700000000},
		{ID: "mem-g", UserID: guest.ID, Name: "guest", JoinedAt: 1700000050},
	}
	ev.DateOptions = []models.DateOption{
		{ID: "d1", At: time.Date(2026, 11, 5, 12, 0, 0, 0, time.UTC), CreatedBy: owner.ID, CreatedAt: 1700000000},
		{ID: "d2", At: time.Date(2026, 11, 6, 12, 0, 0, 0, time.UTC), CreatedBy: guest.ID, CreatedAt: 1700000060},
	}
	ev.LocationOptions = []models.LocationOption{
		{ID: "l1", Label: "Warung Sate", CreatedBy: owner.ID, CreatedAt: 1700000000},
	}
	ev.DateVotes = models.VoteLedger{"mem-o": "d1"}
	ev.LocationVotes = models.VoteLedger{"mem-o": "l1", "mem-g": "l1"}
	ev.Messages = []models.Message{
		{ID: "msg-1", MemberID: "mem-o", UserID: owner.ID, Name: "Owner", Text: "hello", At: 1700000010},
	}
	ev.Bill = models.Bill{
		Total:     150000,
		SplitMode: models.SplitItem,
		Items: []models.BillItem{
			{ID: "i1", Name: "Sate", Cost: 50000, AssigneeMemberID: "mem-o", CreatedBy: "mem-o"},
			{ID: "i2", Name: "Es teh", Cost: 10000, AssigneeMemberID: "mem-g", CreatedBy: "mem-g"},
		},
	}
	return ev
}

func assertEventEqual(t *testing.T, got, want *models.Event) {
	t.Helper()
	if got.Code != want.Code || got.OwnerUserID != want.OwnerUserID || got.Title != want.Title ||
		got.Description != want.Description || got.Deadline != want.Deadline || got.Status != want.Status {
		t.Errorf("Event header mismatch: got %+v, want %+v", got.Summary(), want.Summary())
	}
	if got.FinalizedAt != want.FinalizedAt || got.CreatedAt != want.CreatedAt {
		t.Errorf("Timestamps mismatch: got %d/%d, want %d/%d", got.CreatedAt, got.FinalizedAt, want.CreatedAt, want.FinalizedAt)
	}
	if (got.FinalDateTime == nil) != (want.FinalDateTime == nil) ||
		(got.FinalDateTime != nil && !got.FinalDateTime.Equal(*want.FinalDateTime)) {
		t.Errorf("FinalDateTime mismatch: got %v, want %v", got.FinalDateTime, want.FinalDateTime)
	}
	if (got.FinalLocation == nil) != (want.FinalLocation == nil) ||
		(got.FinalLocation != nil && *got.FinalLocation != *want.FinalLocation) {
		t.Errorf("FinalLocation mismatch: got %v, want %v", got.FinalLocation, want.FinalLocation)
	}

	if len(got.Members) != len(want.Members) {
		t.Fatalf("Members count mismatch: got %d, want %d", len(got.Members), len(want.Members))
	}
	for i := range want.Members {
		if got.Members[i] != want.Members[i] {
			t.Errorf("Member %d mismatch: got %+v, want %+v", i, got.Members[i], want.Members[i])
		}
	}
	if len(got.DateOptions) != len(want.DateOptions) {
		t.Fatalf("DateOptions count mismatch: got %d, want %d", len(got.DateOptions), len(want.DateOptions))
	}
	for i, o := range want.DateOptions {
		g := got.DateOptions[i]
		if g.ID != o.ID || !g.At.Equal(o.At) || g.CreatedBy != o.CreatedBy {
			t.Errorf("DateOption %d mismatch: got %+v, want %+v", i, g, o)
		}
	}
	if len(got.LocationOptions) != len(want.LocationOptions) {
		t.Fatalf("LocationOptions count mismatch: got %d, want %d", len(got.LocationOptions), len(want.LocationOptions))
	}
	for i := range want.LocationOptions {
		if got.LocationOptions[i] != want.LocationOptions[i] {
			t.Errorf("LocationOption %d mismatch: got %+v, want %+v", i, got.LocationOptions[i], want.LocationOptions[i])
		}
	}
	assertLedgerEqual(t, "date", got.DateVotes, want.DateVotes)
	assertLedgerEqual(t, "location", got.LocationVotes, want.LocationVotes)

	if len(got.Messages) != len(want.Messages) {
		t.Fatalf("Messages count mismatch: got %d, want %d", len(got.Messages), len(want.Messages))
	}
	for i := range want.Messages {
		if got.Messages[i] != want.Messages[i] {
			t.Errorf("Message %d mismatch: got %+v, want %+v", i, got.Messages[i], want.Messages[i])
		}
	}

	if got.Bill.Total != want.Bill.Total || got.Bill.SplitMode != want.Bill.SplitMode {
		t.Errorf("Bill mismatch: got %d/%s, want %d/%s", got.Bill.Total, got.Bill.SplitMode, want.Bill.Total, want.Bill.SplitMode)
	}
	if len(got.Bill.Items) != len(want.Bill.Items) {
		t.Fatalf("Bill items count mismatch: got %d, want %d", len(got.Bill.Items), len(want.Bill.Items))
	}
	for i := range want.Bill.Items {
		if got.Bill.Items[i] != want.Bill.Items[i] {
			t.Errorf("Bill item %d mismatch: got %+v, want %+v", i, got.Bill.Items[i], want.Bill.Items[i])
		}
	}
}

func assertLedgerEqual(t *testing.T, name string, got, want models.VoteLedger) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s votes count mismatch: got %v, want %v", name, got, want)
		return
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s vote for %s = %q, want %q", name, k, got[k], v)
		}
	}
}
