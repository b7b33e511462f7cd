package models

import "time"

// Status is the lifecycle state of an event's poll.
type Status string

const (
	// StatusPolling means members can still propose options and vote.
	StatusPolling Status = "POLLING"
	// StatusFinal means the date and location are locked in.
	StatusFinal Status = "FINAL"
	// StatusEnded is terminal and only reachable from FINAL by an external action.
	StatusEnded Status = "ENDED"
)

// DeadlineLayout is the storage and wire format of an event deadline.
const DeadlineLayout = "2006-01-02"

// Category selects which poll of an event a vote belongs to.
type Category string

const (
	CategoryDate     Category = "DATE"
	CategoryLocation Category = "LOCATION"
)

// Event is a planned get-together identified by a short shareable code.
type Event struct {
	// Code is the human-shareable identifier (upper-case, e.g. "K7Q2ZD").
	Code string

	// OwnerUserID is the user who created the event. Only the owner may
	// finalize explicitly.
	OwnerUserID string

	Title       string
	Description string

	// Deadline is a calendar date in DeadlineLayout, or empty when polling
	// stays open until the owner finalizes.
	Deadline string

	Status Status

	// FinalDateTime is the winning date option once finalized.
	FinalDateTime *time.Time

	// FinalLocation is the winning location label once finalized.
	FinalLocation *string

	// Members in join order; the owner is always first.
	Members []Member

	// DateOptions and LocationOptions in creation order. Append-only.
	DateOptions     []DateOption
	LocationOptions []LocationOption

	// DateVotes and LocationVotes map member ID to the chosen option ID.
	DateVotes     VoteLedger
	LocationVotes VoteLedger

	Messages []Message

	Bill Bill

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64

	// FinalizedAt is the Unix timestamp of the POLLING → FINAL transition, 0 before.
	FinalizedAt int64
}

// Member is a user who joined a specific event.
type Member struct {
	// ID is the member identifier (UUID), used as vote key and bill assignee.
	ID string

	// UserID references the account behind this member.
	UserID string

	// Name is the display name shown to other members.
	Name string

	// JoinedAt is the Unix timestamp of the join.
	JoinedAt int64
}

// DateOption is a proposed date/time for the event.
type DateOption struct {
	ID        string
	At        time.Time
	CreatedBy string // user ID
	CreatedAt int64
}

// LocationOption is a proposed place for the event.
type LocationOption struct {
	ID        string
	Label     string
	CreatedBy string // user ID
	CreatedAt int64
}

// OptionID returns the vote target identifier.
func (o DateOption) OptionID() string { return o.ID }

// OptionID returns the vote target identifier.
func (o LocationOption) OptionID() string { return o.ID }

// VoteLedger maps a voter (member ID) to the option ID they chose.
// Re-voting overwrites the previous entry.
type VoteLedger map[string]string

// Message is a chat message posted by a member.
type Message struct {
	ID       string
	MemberID string
	UserID   string
	Name     string
	Text     string
	At       int64
}

// EventSummary is the listing view of an event.
type EventSummary struct {
	Code          string
	Title         string
	Status        Status
	Deadline      string
	FinalDateTime *time.Time
	FinalLocation *string
	CreatedAt     int64
	UpdatedAt     int64
	FinalizedAt   int64
}

// NewEvent returns an event in POLLING state with empty ledgers and an EVEN bill.
func NewEvent(code, ownerUserID, title string) *Event {
	now := time.Now().Unix()
	return &Event{
		Code:          code,
		OwnerUserID:   ownerUserID,
		Title:         title,
		Status:        StatusPolling,
		DateVotes:     VoteLedger{},
		LocationVotes: VoteLedger{},
		Bill:          Bill{SplitMode: SplitEven},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MemberByUser returns the member backed by userID.
func (e *Event) MemberByUser(userID string) (Member, bool) {
	for _, m := range e.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// MemberByID returns the member with the given member ID.
func (e *Event) MemberByID(memberID string) (Member, bool) {
	for _, m := range e.Members {
		if m.ID == memberID {
			return m, true
		}
	}
	return Member{}, false
}

// Summary returns the listing view of the event.
func (e *Event) Summary() EventSummary {
	return EventSummary{
		Code:          e.Code,
		Title:         e.Title,
		Status:        e.Status,
		Deadline:      e.Deadline,
		FinalDateTime: e.FinalDateTime,
		FinalLocation: e.FinalLocation,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		FinalizedAt:   e.FinalizedAt,
	}
}

// Ledger returns the vote ledger for the category, creating it if needed.
func (e *Event) Ledger(c Category) VoteLedger {
	switch c {
	case CategoryDate:
		if e.DateVotes == nil {
			e.DateVotes = VoteLedger{}
		}
		return e.DateVotes
	case CategoryLocation:
		if e.LocationVotes == nil {
			e.LocationVotes = VoteLedger{}
		}
		return e.LocationVotes
	}
	return nil
}
