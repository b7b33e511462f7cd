package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/models"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func ptr[T any](v T) *T { return &v }

type fakeSource struct {
	events []*models.Event
	users  map[string]*models.User
}

func (f *fakeSource) ListFinalEvents(_ context.Context, from, to time.Time) ([]*models.Event, error) {
	var out []*models.Event
	for _, ev := range f.events {
		if ev.Status != models.StatusFinal || ev.FinalDateTime == nil {
			continue
		}
		if !ev.FinalDateTime.Before(from) && ev.FinalDateTime.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeSource) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent []Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func finalEvent(code, title string, at time.Time, location string, userIDs ...string) *models.Event {
	ev := models.NewEvent(code, userIDs[0], title)
	ev.Status = models.StatusFinal
	ev.FinalDateTime = ptr(at)
	if location != "" {
		ev.FinalLocation = ptr(location)
	}
	for i, uid := range userIDs {
		ev.Members = append(ev.Members, models.Member{ID: "m-" + uid, UserID: uid, Name: "member" + string(rune('A'+i))})
	}
	return ev
}

func user(id, email string, prefs models.NotificationPrefs) *models.User {
	return &models.User{ID: id, Email: email, DisplayName: strings.ToUpper(id), Notifications: prefs}
}

func TestTranslator(t *testing.T) {
	tr := NewTranslator("en")

	tests := []struct {
		name   string
		locale string
		key    string
		data   map[string]any
		want   string
	}{
		{"english", "en", "feed_final", map[string]any{"Title": "Dinner"}, "Final date has been selected for ‘Dinner’."},
		{"indonesian", "id", "reminder_h3_subject", map[string]any{"Title": "Nongkrong"}, "⏰ Reminder: Nongkrong - 3 Hari Lagi!"},
		{"unknown locale falls back", "fr", "location_tba", nil, "Not decided yet"},
		{"empty locale uses default", "", "date_tba", nil, "TBA"},
		{"unknown key", "en", "no_such_key", nil, "no_such_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.T(tt.locale, tt.key, tt.data); got != tt.want {
				t.Errorf("T(%q, %q) = %q, want %q", tt.locale, tt.key, got, tt.want)
			}
		})
	}

	if got := NewTranslator("not a tag").DefaultLocale(); got != "en" {
		t.Errorf("DefaultLocale() = %q, want en", got)
	}
}

func TestBuildFeed(t *testing.T) {
	tr := NewTranslator("en")
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	events := []models.EventSummary{
		{Code: "POLL01", Title: "Still voting", Status: models.StatusPolling, UpdatedAt: 500},
		{Code: "FINAL1", Title: "Brunch", Status: models.StatusFinal, FinalDateTime: ptr(now.Add(72 * time.Hour)), UpdatedAt: 100},
		{Code: "SOON01", Title: "Karaoke", Status: models.StatusFinal, FinalDateTime: ptr(now.Add(23 * time.Hour)), UpdatedAt: 300},
		{Code: "PAST01", Title: "Old", Status: models.StatusFinal, FinalDateTime: ptr(now.Add(-time.Hour)), UpdatedAt: 200},
	}

	feed := BuildFeed(tr, "en", events, now)

	wantIDs := []string{"SOON01-FINAL", "SOON01-TOMORROW", "PAST01-FINAL", "FINAL1-FINAL"}
	if len(feed) != len(wantIDs) {
		t.Fatalf("Expected %d entries, got %d: %+v", len(wantIDs), len(feed), feed)
	}
	for i, id := range wantIDs {
		if feed[i].ID != id {
			t.Errorf("feed[%d].ID = %q, want %q", i, feed[i].ID, id)
		}
	}
	if feed[1].Kind != models.NotificationTomorrow || feed[1].Text != "Your event ‘Karaoke’ starts tomorrow." {
		t.Errorf("Unexpected tomorrow entry: %+v", feed[1])
	}
	if feed[1].At != 300 {
		t.Errorf("Expected At from UpdatedAt, got %d", feed[1].At)
	}
}

func TestBuildFeedTomorrowBoundary(t *testing.T) {
	tr := NewTranslator("en")
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	events := []models.EventSummary{
		{Code: "EXACT1", Status: models.StatusFinal, FinalDateTime: ptr(now.Add(24 * time.Hour))},
		{Code: "LATER1", Status: models.StatusFinal, FinalDateTime: ptr(now.Add(24*time.Hour + time.Second))},
		{Code: "NOWNOW", Status: models.StatusFinal, FinalDateTime: ptr(now)},
	}
	var tomorrow []string
	for _, n := range BuildFeed(tr, "en", events, now) {
		if n.Kind == models.NotificationTomorrow {
			tomorrow = append(tomorrow, n.Code)
		}
	}
	if len(tomorrow) != 1 || tomorrow[0] != "EXACT1" {
		t.Errorf("Expected only EXACT1 to start tomorrow, got %v", tomorrow)
	}
}

func TestReminderRun(t *testing.T) {
	all := models.DefaultNotificationPrefs()
	noH3 := all
	noH3.ReminderH3 = false
	off := all
	off.Enabled = false

	src := &fakeSource{
		events: []*models.Event{
			// H-3: 15th, run on the 12th.
			finalEvent("THREE1", "Beach day", time.Date(2026, 10, 15, 19, 0, 0, 0, jakarta), "Pantai Indah", "u1", "u2", "u3"),
			// H-1: 13th, early morning still counts as the next calendar day.
			finalEvent("ONE001", "Breakfast", time.Date(2026, 10, 13, 6, 30, 0, 0, jakarta), "", "u1", "u2", "u3"),
			// H-2: no reminder.
			finalEvent("TWO002", "Movie", time.Date(2026, 10, 14, 20, 0, 0, 0, jakarta), "", "u1"),
		},
		users: map[string]*models.User{
			"u1": user("u1", "u1@example.com", all),
			"u2": user("u2", "u2@example.com", noH3),
			"u3": user("u3", "u3@example.com", off),
		},
	}
	mailer := &fakeMailer{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := NewReminder(src, mailer, NewTranslator("id"),
		WithLocation(jakarta), WithLocale("id"), WithPublicURL("https://hangout.example/"), WithMetrics(m))

	// 23:30 UTC on the 11th is 06:30 on the 12th in Jakarta.
	sent, err := r.Run(context.Background(), time.Date(2026, 10, 11, 23, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sent != 3 {
		t.Fatalf("Expected 3 emails, got %d: %+v", sent, mailer.sent)
	}

	got := map[string]bool{}
	for _, msg := range mailer.sent {
		got[msg.To+"|"+msg.Subject] = true
	}
	for _, want := range []string{
		"u1@example.com|⏰ Reminder: Beach day - 3 Hari Lagi!",
		"u1@example.com|🔥 BESOK! Breakfast - Jangan Lupa!",
		"u2@example.com|🔥 BESOK! Breakfast - Jangan Lupa!",
	} {
		if !got[want] {
			t.Errorf("Missing email %q", want)
		}
	}

	h3 := mailer.sent[0]
	for _, part := range []string{"Halo, U1!", "Pantai Indah", "https://hangout.example/events/THREE1"} {
		if !strings.Contains(h3.HTML, part) {
			t.Errorf("H-3 email missing %q", part)
		}
	}
	if !strings.Contains(mailer.sent[1].HTML, "Belum ditentukan") {
		t.Error("Expected placeholder for missing location")
	}

	if v := testutil.ToFloat64(m.RemindersSent.WithLabelValues(KindH1)); v != 2 {
		t.Errorf("Expected 2 h1 reminders counted, got %v", v)
	}

	// Reminders never change event state.
	for _, ev := range src.events {
		if ev.Status != models.StatusFinal {
			t.Errorf("Event %s status changed to %s", ev.Code, ev.Status)
		}
	}
}

func TestReminderMailFailureIsSkipped(t *testing.T) {
	src := &fakeSource{
		events: []*models.Event{
			finalEvent("ONE001", "Breakfast", time.Date(2026, 10, 13, 10, 0, 0, 0, time.UTC), "", "u1"),
		},
		users: map[string]*models.User{"u1": user("u1", "u1@example.com", models.DefaultNotificationPrefs())},
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := NewReminder(src, &fakeMailer{err: errors.New("relay down")}, NewTranslator("en"), WithMetrics(m))

	sent, err := r.Run(context.Background(), time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run should not fail on delivery errors: %v", err)
	}
	if sent != 0 {
		t.Errorf("Expected 0 sent, got %d", sent)
	}
	if v := testutil.ToFloat64(m.NotifierFailures); v != 1 {
		t.Errorf("Expected 1 failure counted, got %v", v)
	}
}

func TestSMTPMailer(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "bot", Password: "secret", From: "Hangout <bot@example.com>"})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if a == nil {
			t.Error("Expected PLAIN auth when a username is set")
		}
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := mailer.Send(context.Background(), Email{To: "a@example.com", Subject: "🔥 Tomorrow", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	for _, part := range []string{"Subject: =?utf-8?q?", "Content-Type: text/html", "\r\n\r\n<p>hi</p>"} {
		if !strings.Contains(gotMsg, part) {
			t.Errorf("message missing %q:\n%s", part, gotMsg)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mailer.Send(ctx, Email{To: "a@example.com"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

type fakeSender struct {
	channel string
	content string
	err     error
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel, f.content = channelID, content
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestDiscordAnnouncer(t *testing.T) {
	sender := &fakeSender{}
	ev := finalEvent("K7Q2ZD", "Sate night", time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC), "Warung Sate", "u1")
	d := newDiscordAnnouncer(sender, "chan-1", NewTranslator("en"), WithLocation(jakarta))

	if err := d.Finalized(context.Background(), ev); err != nil {
		t.Fatalf("Finalized failed: %v", err)
	}
	if sender.channel != "chan-1" {
		t.Errorf("channel = %q", sender.channel)
	}
	want := "🎉 **Sate night** (K7Q2ZD) is set!\n📅 Tue, 20 Oct 2026 19:00 WIB\n📍 Warung Sate"
	if sender.content != want {
		t.Errorf("content = %q, want %q", sender.content, want)
	}

	sender.err = errors.New("boom")
	if err := d.Finalized(context.Background(), ev); err == nil {
		t.Error("Expected error from failing sender")
	}

	if _, err := NewDiscordAnnouncer("", "chan", NewTranslator("en")); err == nil {
		t.Error("Expected error without token")
	}
}

func TestMailAnnouncer(t *testing.T) {
	noUpdates := models.DefaultNotificationPrefs()
	noUpdates.EventUpdates = false

	src := &fakeSource{users: map[string]*models.User{
		"u1": user("u1", "u1@example.com", models.DefaultNotificationPrefs()),
		"u2": user("u2", "u2@example.com", noUpdates),
	}}
	mailer := &fakeMailer{}
	ev := finalEvent("K7Q2ZD", "Sate night", time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC), "Warung Sate", "u1", "u2", "ghost")

	a := NewMailAnnouncer(src, mailer, NewTranslator("en"))
	if err := a.Finalized(context.Background(), ev); err != nil {
		t.Fatalf("Finalized failed: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "u1@example.com" {
		t.Fatalf("Expected one email to u1, got %+v", mailer.sent)
	}
	if mailer.sent[0].Subject != "📢 Update: Sate night" {
		t.Errorf("subject = %q", mailer.sent[0].Subject)
	}
}

type recordingAnnouncer struct {
	calls int
	err   error
}

func (r *recordingAnnouncer) Finalized(context.Context, *models.Event) error {
	r.calls++
	return r.err
}

func TestAnnouncersCallsAll(t *testing.T) {
	first := &recordingAnnouncer{err: errors.New("first failed")}
	second := &recordingAnnouncer{}

	err := Announcers{first, second}.Finalized(context.Background(), &models.Event{Code: "X"})
	if err == nil || !strings.Contains(err.Error(), "first failed") {
		t.Errorf("Expected joined error, got %v", err)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("Expected both announcers called, got %d and %d", first.calls, second.calls)
	}
}

func TestNewScheduler(t *testing.T) {
	r := NewReminder(&fakeSource{}, &fakeMailer{}, NewTranslator("en"))

	if _, err := NewScheduler("not a cron", time.UTC, r, nil); err == nil {
		t.Error("Expected error for invalid spec")
	}

	s, err := NewScheduler("0 9 * * *", jakarta, r, nil)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	next := s.Next().In(jakarta)
	if next.Hour() != 9 || next.Minute() != 0 {
		t.Errorf("Expected next run at 09:00 WIB, got %v", next)
	}
}
