package service

import (
	"time"

	"github.com/mmynk/hangout/internal/calculator"
	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Photo:        u.Photo,
		HasPassword:  u.PasswordHash != "",
		GoogleLinked: u.GoogleID != "",
		Notifications: api.NotificationSettings{
			Enabled:      u.Notifications.Enabled,
			ReminderH3:   u.Notifications.ReminderH3,
			ReminderH1:   u.Notifications.ReminderH1,
			EventUpdates: u.Notifications.EventUpdates,
		},
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toAPISummary(s models.EventSummary) *api.EventSummary {
	return &api.EventSummary{
		Code:          s.Code,
		Title:         s.Title,
		Status:        string(s.Status),
		Deadline:      s.Deadline,
		FinalDateTime: formatTime(s.FinalDateTime),
		FinalLocation: deref(s.FinalLocation),
		CreatedAt:     s.CreatedAt,
	}
}

func dateRanking(ev *models.Event) []*api.RankedOption {
	ranked := planner.Rank(ev.DateOptions, planner.Tally(ev.DateVotes))
	out := make([]*api.RankedOption, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, toAPIDateOption(r.Option, r.Votes))
	}
	return out
}

func locationRanking(ev *models.Event) []*api.RankedOption {
	ranked := planner.Rank(ev.LocationOptions, planner.Tally(ev.LocationVotes))
	out := make([]*api.RankedOption, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, toAPILocationOption(r.Option, r.Votes))
	}
	return out
}

func toAPIDateOption(o models.DateOption, votes int) *api.RankedOption {
	return &api.RankedOption{ID: o.ID, Value: formatTime(&o.At), Votes: votes, CreatedBy: o.CreatedBy}
}

func toAPILocationOption(o models.LocationOption, votes int) *api.RankedOption {
	return &api.RankedOption{ID: o.ID, Value: o.Label, Votes: votes, CreatedBy: o.CreatedBy}
}

// toAPIEvent renders the event as seen by the member backed by userID.
func toAPIEvent(ev *models.Event, userID string, pollingOpen bool) *api.EventDetail {
	detail := &api.EventDetail{
		Code:            ev.Code,
		Title:           ev.Title,
		Description:     ev.Description,
		Deadline:        ev.Deadline,
		Status:          string(ev.Status),
		OwnerUserID:     ev.OwnerUserID,
		IsOwner:         ev.OwnerUserID == userID,
		PollingOpen:     pollingOpen,
		FinalDateTime:   formatTime(ev.FinalDateTime),
		FinalLocation:   deref(ev.FinalLocation),
		Members:         make([]*api.Member, 0, len(ev.Members)),
		DateRanking:     dateRanking(ev),
		LocationRanking: locationRanking(ev),
		Messages:        make([]*api.Message, 0, len(ev.Messages)),
		Bill:            toAPIBill(ev.Bill),
		CreatedAt:       ev.CreatedAt,
		FinalizedAt:     ev.FinalizedAt,
	}
	for _, m := range ev.Members {
		detail.Members = append(detail.Members, toAPIMember(m))
	}
	for _, m := range ev.Messages {
		detail.Messages = append(detail.Messages, toAPIMessage(m))
	}
	if me, ok := ev.MemberByUser(userID); ok {
		detail.MyVotes = api.MyVotes{
			Date:     ev.DateVotes[me.ID],
			Location: ev.LocationVotes[me.ID],
		}
	}
	return detail
}

func toAPIMember(m models.Member) *api.Member {
	return &api.Member{ID: m.ID, UserID: m.UserID, Name: m.Name, JoinedAt: m.JoinedAt}
}

func toAPIMessage(m models.Message) *api.Message {
	return &api.Message{ID: m.ID, MemberID: m.MemberID, Name: m.Name, Text: m.Text, At: m.At}
}

func toAPIBill(b models.Bill) *api.Bill {
	mode := b.SplitMode
	if mode == "" {
		mode = models.SplitEven
	}
	out := &api.Bill{Total: b.Total, SplitMode: string(mode), Items: make([]*api.BillItem, 0, len(b.Items))}
	for _, item := range b.Items {
		out.Items = append(out.Items, toAPIBillItem(item))
	}
	return out
}

func toAPIBillItem(item models.BillItem) *api.BillItem {
	return &api.BillItem{
		ID:               item.ID,
		Name:             item.Name,
		Cost:             item.Cost,
		AssigneeMemberID: item.AssigneeMemberID,
		CreatedBy:        item.CreatedBy,
	}
}

func toAPISplitRows(rows []calculator.Row) []*api.SplitRow {
	out := make([]*api.SplitRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, &api.SplitRow{
			MemberID: r.MemberID,
			Name:     r.Name,
			Items:    r.Items,
			Share:    r.Share,
			Amount:   r.Amount,
		})
	}
	return out
}

func toAPINotification(n models.Notification) *api.Notification {
	return &api.Notification{ID: n.ID, Kind: string(n.Kind), Code: n.Code, Text: n.Text, At: n.At}
}
