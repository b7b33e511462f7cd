package gormstore

import (
	"time"

	"github.com/mmynk/hangout/internal/models"
)

type userRow struct {
	ID            string  `gorm:"column:id;primaryKey"`
	Email         string  `gorm:"column:email;uniqueIndex;not null"`
	DisplayName   string  `gorm:"column:display_name"`
	PasswordHash  string  `gorm:"column:password_hash"`
	GoogleID      *string `gorm:"column:google_id;uniqueIndex"`
	Photo         string  `gorm:"column:photo"`
	NotifyEnabled bool    `gorm:"column:notify_enabled"`
	NotifyH3      bool    `gorm:"column:notify_h3"`
	NotifyH1      bool    `gorm:"column:notify_h1"`
	NotifyUpdates bool    `gorm:"column:notify_updates"`
	CreatedAt     int64   `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     int64   `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (userRow) TableName() string {
	return "users"
}

func userRowFromModel(u *models.User) userRow {
	row := userRow{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PasswordHash:  u.PasswordHash,
		Photo:         u.Photo,
		NotifyEnabled: u.Notifications.Enabled,
		NotifyH3:      u.Notifications.ReminderH3,
		NotifyH1:      u.Notifications.ReminderH1,
		NotifyUpdates: u.Notifications.EventUpdates,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.GoogleID != "" {
		g := u.GoogleID
		row.GoogleID = &g
	}
	return row
}

func (r userRow) toModel() *models.User {
	u := &models.User{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		Photo:        r.Photo,
		Notifications: models.NotificationPrefs{
			Enabled:      r.NotifyEnabled,
			ReminderH3:   r.NotifyH3,
			ReminderH1:   r.NotifyH1,
			EventUpdates: r.NotifyUpdates,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.GoogleID != nil {
		u.GoogleID = *r.GoogleID
	}
	return u
}

type eventRow struct {
	Code          string     `gorm:"column:code;primaryKey"`
	OwnerUserID   string     `gorm:"column:owner_user_id;index"`
	Title         string     `gorm:"column:title;not null"`
	Description   string     `gorm:"column:description"`
	Deadline      string     `gorm:"column:deadline"`
	Status        string     `gorm:"column:status;index:idx_events_status_final_at,priority:1"`
	FinalAt       *time.Time `gorm:"column:final_at;index:idx_events_status_final_at,priority:2"`
	FinalLocation *string    `gorm:"column:final_location"`
	BillTotal     int64      `gorm:"column:bill_total"`
	SplitMode     string     `gorm:"column:split_mode"`
	CreatedAt     int64      `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt     int64      `gorm:"column:updated_at;autoUpdateTime:false"`
	FinalizedAt   int64      `gorm:"column:finalized_at"`
}

func (eventRow) TableName() string {
	return "events"
}

type memberRow struct {
	ID        string `gorm:"column:id;primaryKey"`
	EventCode string `gorm:"column:event_code;index;uniqueIndex:idx_member_event_user,priority:1"`
	UserID    string `gorm:"column:user_id;index;uniqueIndex:idx_member_event_user,priority:2"`
	Name      string `gorm:"column:name"`
	JoinedAt  int64  `gorm:"column:joined_at"`
	Position  int    `gorm:"column:position"`
}

func (memberRow) TableName() string {
	return "event_members"
}

type dateOptionRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EventCode string    `gorm:"column:event_code;index"`
	At        time.Time `gorm:"column:at"`
	CreatedBy string    `gorm:"column:created_by"`
	CreatedAt int64     `gorm:"column:created_at;autoCreateTime:false"`
	Position  int       `gorm:"column:position"`
}

func (dateOptionRow) TableName() string {
	return "date_options"
}

type locationOptionRow struct {
	ID        string `gorm:"column:id;primaryKey"`
	EventCode string `gorm:"column:event_code;index"`
	Label     string `gorm:"column:label"`
	CreatedBy string `gorm:"column:created_by"`
	CreatedAt int64  `gorm:"column:created_at;autoCreateTime:false"`
	Position  int    `gorm:"column:position"`
}

func (locationOptionRow) TableName() string {
	return "location_options"
}

type voteRow struct {
	EventCode string `gorm:"column:event_code;primaryKey"`
	Category  string `gorm:"column:category;primaryKey"`
	MemberID  string `gorm:"column:member_id;primaryKey"`
	OptionID  string `gorm:"column:option_id"`
}

func (voteRow) TableName() string {
	return "votes"
}

type messageRow struct {
	ID        string `gorm:"column:id;primaryKey"`
	EventCode string `gorm:"column:event_code;index"`
	MemberID  string `gorm:"column:member_id"`
	UserID    string `gorm:"column:user_id"`
	Name      string `gorm:"column:name"`
	Text      string `gorm:"column:text"`
	At        int64  `gorm:"column:at"`
	Position  int    `gorm:"column:position"`
}

func (messageRow) TableName() string {
	return "messages"
}

type billItemRow struct {
	ID               string `gorm:"column:id;primaryKey"`
	EventCode        string `gorm:"column:event_code;index"`
	Name             string `gorm:"column:name"`
	Cost             int64  `gorm:"column:cost"`
	AssigneeMemberID string `gorm:"column:assignee_member_id"`
	CreatedBy        string `gorm:"column:created_by"`
	Position         int    `gorm:"column:position"`
}

func (billItemRow) TableName() string {
	return "bill_items"
}

// allRows lists every table, parents first, for AutoMigrate.
func allRows() []any {
	return []any{
		&userRow{}, &eventRow{}, &memberRow{}, &dateOptionRow{},
		&locationOptionRow{}, &voteRow{}, &messageRow{}, &billItemRow{},
	}
}

func eventRowFromModel(ev *models.Event) eventRow {
	row := eventRow{
		Code:          ev.Code,
		OwnerUserID:   ev.OwnerUserID,
		Title:         ev.Title,
		Description:   ev.Description,
		Deadline:      ev.Deadline,
		Status:        string(ev.Status),
		FinalLocation: ev.FinalLocation,
		BillTotal:     ev.Bill.Total,
		SplitMode:     string(ev.Bill.SplitMode),
		CreatedAt:     ev.CreatedAt,
		UpdatedAt:     ev.UpdatedAt,
		FinalizedAt:   ev.FinalizedAt,
	}
	if ev.FinalDateTime != nil {
		t := ev.FinalDateTime.UTC()
		row.FinalAt = &t
	}
	return row
}

func (r eventRow) toModel() *models.Event {
	ev := &models.Event{
		Code:          r.Code,
		OwnerUserID:   r.OwnerUserID,
		Title:         r.Title,
		Description:   r.Description,
		Deadline:      r.Deadline,
		Status:        models.Status(r.Status),
		FinalLocation: r.FinalLocation,
		DateVotes:     models.VoteLedger{},
		LocationVotes: models.VoteLedger{},
		Bill:          models.Bill{Total: r.BillTotal, SplitMode: models.SplitMode(r.SplitMode)},
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		FinalizedAt:   r.FinalizedAt,
	}
	if r.FinalAt != nil {
		t := r.FinalAt.UTC()
		ev.FinalDateTime = &t
	}
	return ev
}

// children is the row form of everything an event owns.
type children struct {
	members   []memberRow
	dates     []dateOptionRow
	locations []locationOptionRow
	votes     []voteRow
	messages  []messageRow
	items     []billItemRow
}

func childrenFromModel(ev *models.Event) children {
	var c children
	for i, m := range ev.Members {
		c.members = append(c.members, memberRow{
			ID: m.ID, EventCode: ev.Code, UserID: m.UserID, Name: m.Name, JoinedAt: m.JoinedAt, Position: i,
		})
	}
	for i, o := range ev.DateOptions {
		c.dates = append(c.dates, dateOptionRow{
			ID: o.ID, EventCode: ev.Code, At: o.At.UTC(), CreatedBy: o.CreatedBy, CreatedAt: o.CreatedAt, Position: i,
		})
	}
	for i, o := range ev.LocationOptions {
		c.locations = append(c.locations, locationOptionRow{
			ID: o.ID, EventCode: ev.Code, Label: o.Label, CreatedBy: o.CreatedBy, CreatedAt: o.CreatedAt, Position: i,
		})
	}
	for _, cat := range []models.Category{models.CategoryDate, models.CategoryLocation} {
		for memberID, optionID := range ev.Ledger(cat) {
			c.votes = append(c.votes, voteRow{
				EventCode: ev.Code, Category: string(cat), MemberID: memberID, OptionID: optionID,
			})
		}
	}
	for i, m := range ev.Messages {
		c.messages = append(c.messages, messageRow{
			ID: m.ID, EventCode: ev.Code, MemberID: m.MemberID, UserID: m.UserID, Name: m.Name, Text: m.Text, At: m.At, Position: i,
		})
	}
	for i, item := range ev.Bill.Items {
		c.items = append(c.items, billItemRow{
			ID: item.ID, EventCode: ev.Code, Name: item.Name, Cost: item.Cost,
			AssigneeMemberID: item.AssigneeMemberID, CreatedBy: item.CreatedBy, Position: i,
		})
	}
	return c
}

func (c children) apply(ev *models.Event) {
	for _, r := range c.members {
		ev.Members = append(ev.Members, models.Member{ID: r.ID, UserID: r.UserID, Name: r.Name, JoinedAt: r.JoinedAt})
	}
	for _, r := range c.dates {
		ev.DateOptions = append(ev.DateOptions, models.DateOption{ID: r.ID, At: r.At.UTC(), CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt})
	}
	for _, r := range c.locations {
		ev.LocationOptions = append(ev.LocationOptions, models.LocationOption{ID: r.ID, Label: r.Label, CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt})
	}
	for _, r := range c.votes {
		if ledger := ev.Ledger(models.Category(r.Category)); ledger != nil {
			ledger[r.MemberID] = r.OptionID
		}
	}
	for _, r := range c.messages {
		ev.Messages = append(ev.Messages, models.Message{ID: r.ID, MemberID: r.MemberID, UserID: r.UserID, Name: r.Name, Text: r.Text, At: r.At})
	}
	for _, r := range c.items {
		ev.Bill.Items = append(ev.Bill.Items, models.BillItem{
			ID: r.ID, Name: r.Name, Cost: r.Cost, AssigneeMemberID: r.AssigneeMemberID, CreatedBy: r.CreatedBy,
		})
	}
}
