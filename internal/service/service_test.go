package service

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/hangout/internal/auth"
	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/middleware"
	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/internal/storage/sqlite"
	"github.com/mmynk/hangout/pkg/api"
	"github.com/mmynk/hangout/pkg/api/apiconnect"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingAnnouncer struct {
	mu    sync.Mutex
	codes []string
}

func (r *recordingAnnouncer) Finalized(_ context.Context, ev *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, ev.Code)
	return nil
}

func (r *recordingAnnouncer) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

type testEnv struct {
	clock     *testClock
	announcer *recordingAnnouncer
	metrics   *metrics.Metrics

	auth   *apiconnect.AuthServiceClient
	events *apiconnect.EventServiceClient
	bills  *apiconnect.BillServiceClient
	feed   *apiconnect.NotificationServiceClient
}

// setupTestServer starts all services behind the real auth interceptor,
// backed by a temp-file SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		clock:     &testClock{now: testNow},
		announcer: &recordingAnnouncer{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	opts := []Option{
		WithClock(env.clock.Now),
		WithLocation(time.UTC),
		WithAnnouncer(env.announcer),
		WithMetrics(env.metrics),
		WithLogger(logger),
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	interceptors := connect.WithInterceptors(middleware.RequireAuth(jwtManager,
		apiconnect.AuthServiceRegisterProcedure,
		apiconnect.AuthServiceLoginProcedure,
		apiconnect.BillServicePreviewSplitProcedure,
	))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger), interceptors))
	mux.Handle(apiconnect.NewEventServiceHandler(NewEventService(store, opts...), interceptors))
	mux.Handle(apiconnect.NewBillServiceHandler(NewBillService(store, opts...), interceptors))
	mux.Handle(apiconnect.NewNotificationServiceHandler(NewNotificationService(store, opts...), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env.auth = apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL)
	env.events = apiconnect.NewEventServiceClient(http.DefaultClient, server.URL)
	env.bills = apiconnect.NewBillServiceClient(http.DefaultClient, server.URL)
	env.feed = apiconnect.NewNotificationServiceClient(http.DefaultClient, server.URL)
	return env
}

func withToken[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func (e *testEnv) register(t *testing.T, email, name string) string {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email: email, Password: "secret123", DisplayName: name,
	}))
	if err != nil {
		t.Fatalf("Register %s failed: %v", email, err)
	}
	return resp.Msg.Token
}

func (e *testEnv) createEvent(t *testing.T, token string, req *api.CreateEventRequest) *api.EventDetail {
	t.Helper()
	resp, err := e.events.CreateEvent(context.Background(), withToken(token, req))
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	return resp.Msg.Event
}

func (e *testEnv) join(t *testing.T, token, code string) *api.EventDetail {
	t.Helper()
	resp, err := e.events.JoinEvent(context.Background(), withToken(token, &api.JoinEventRequest{Code: code}))
	if err != nil {
		t.Fatalf("JoinEvent failed: %v", err)
	}
	return resp.Msg.Event
}

func (e *testEnv) get(t *testing.T, token, code string) *api.EventDetail {
	t.Helper()
	resp, err := e.events.GetEvent(context.Background(), withToken(token, &api.GetEventRequest{Code: code}))
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	return resp.Msg.Event
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("Expected code %v, got %v (%v)", want, got, err)
	}
}

func memberID(t *testing.T, ev *api.EventDetail, name string) string {
	t.Helper()
	for _, m := range ev.Members {
		if m.Name == name {
			return m.ID
		}
	}
	t.Fatalf("member %q not found in %+v", name, ev.Members)
	return ""
}

func TestAuthFlow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	token := env.register(t, "Alice@Example.com", "Alice")

	_, err := env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{Email: "alice@example.com", Password: "another1"}))
	expectCode(t, err, connect.CodeAlreadyExists)

	_, err = env.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{Email: "weak@example.com", Password: "12345"}))
	expectCode(t, err, connect.CodeInvalidArgument)

	_, err = env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "wrong-password"}))
	expectCode(t, err, connect.CodeUnauthenticated)

	login, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "ALICE@example.com", Password: "secret123"}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.Msg.User.Email != "alice@example.com" {
		t.Errorf("Expected lower-cased email, got %q", login.Msg.User.Email)
	}

	me, err := env.auth.GetCurrentUser(ctx, withToken(token, &api.GetCurrentUserRequest{}))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.DisplayName != "Alice" || !me.Msg.User.HasPassword || !me.Msg.User.Notifications.Enabled {
		t.Errorf("Unexpected user: %+v", me.Msg.User)
	}

	_, err = env.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)

	name := "Alice Wonder"
	photo := "https://example.com/a.png"
	profile, err := env.auth.UpdateProfile(ctx, withToken(token, &api.UpdateProfileRequest{DisplayName: &name, Photo: &photo}))
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if profile.Msg.User.DisplayName != name || profile.Msg.User.Photo != photo {
		t.Errorf("Profile not updated: %+v", profile.Msg.User)
	}

	tooLong := "This display name is definitely longer than fifty characters"
	_, err = env.auth.UpdateProfile(ctx, withToken(token, &api.UpdateProfileRequest{DisplayName: &tooLong}))
	expectCode(t, err, connect.CodeInvalidArgument)

	_, err = env.auth.ChangePassword(ctx, withToken(token, &api.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newsecret"}))
	expectCode(t, err, connect.CodeUnauthenticated)

	if _, err := env.auth.ChangePassword(ctx, withToken(token, &api.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret"})); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := env.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: "alice@example.com", Password: "newsecret"})); err != nil {
		t.Errorf("Login with new password failed: %v", err)
	}

	settings, err := env.auth.UpdateNotificationSettings(ctx, withToken(token, &api.UpdateNotificationSettingsRequest{
		Settings: api.NotificationSettings{Enabled: true, ReminderH3: false, ReminderH1: true, EventUpdates: false},
	}))
	if err != nil {
		t.Fatalf("UpdateNotificationSettings failed: %v", err)
	}
	got := settings.Msg.User.Notifications
	if !got.Enabled || got.ReminderH3 || !got.ReminderH1 || got.EventUpdates {
		t.Errorf("Unexpected settings: %+v", got)
	}

	if _, err := env.auth.Logout(ctx, withToken(token, &api.LogoutRequest{})); err != nil {
		t.Errorf("Logout failed: %v", err)
	}
}

func TestCreateEventValidation(t *testing.T) {
	env := setupTestServer(t)
	token := env.register(t, "alice@example.com", "Alice")

	tests := []struct {
		name string
		req  *api.CreateEventRequest
	}{
		{"empty title", &api.CreateEventRequest{Title: "   "}},
		{"bad deadline", &api.CreateEventRequest{Title: "Dinner", Deadline: "20/10/2026"}},
		{"bad date option", &api.CreateEventRequest{Title: "Dinner", DateOptions: []string{"tomorrow"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.events.CreateEvent(context.Background(), withToken(token, tt.req))
			expectCode(t, err, connect.CodeInvalidArgument)
		})
	}

	_, err := env.events.ListEvents(context.Background(), connect.NewRequest(&api.ListEventsRequest{}))
	expectCode(t, err, connect.CodeUnauthenticated)
}

func TestEventLifecycle(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice@example.com", "Alice")
	bob := env.register(t, "bob@example.com", "")
	carol := env.register(t, "carol@example.com", "Carol")

	ev := env.createEvent(t, alice, &api.CreateEventRequest{
		Title:           "Sate night",
		Deadline:        "2026-10-20",
		DateOptions:     []string{"2026-10-24T19:00:00+07:00", "2026-10-25T19:00:00+07:00"},
		LocationOptions: []string{"Warung Sate"},
	})
	if len(ev.Code) != 6 || ev.Status != "POLLING" || !ev.IsOwner || !ev.PollingOpen {
		t.Fatalf("Unexpected new event: %+v", ev)
	}
	if len(ev.Members) != 1 || ev.Members[0].Name != "Alice" {
		t.Fatalf("Expected owner as first member, got %+v", ev.Members)
	}
	if ev.DateRanking[0].Value != "2026-10-24T12:00:00Z" {
		t.Errorf("Expected UTC RFC 3339 value, got %q", ev.DateRanking[0].Value)
	}
	d1, d2 := ev.DateRanking[0].ID, ev.DateRanking[1].ID

	// Codes are case-insensitive for joiners.
	joined, err := env.events.JoinEvent(ctx, withToken(bob, &api.JoinEventRequest{Code: " " + strings.ToLower(ev.Code)}))
	if err != nil {
		t.Fatalf("JoinEvent failed: %v", err)
	}
	if !joined.Msg.Joined || len(joined.Msg.Event.Members) != 2 || joined.Msg.Event.Members[1].Name != "bob" {
		t.Fatalf("Unexpected join result: %+v", joined.Msg)
	}
	again, err := env.events.JoinEvent(ctx, withToken(bob, &api.JoinEventRequest{Code: ev.Code}))
	if err != nil {
		t.Fatalf("second JoinEvent failed: %v", err)
	}
	if again.Msg.Joined || len(again.Msg.Event.Members) != 2 {
		t.Errorf("Expected idempotent join, got %+v", again.Msg)
	}

	_, err = env.events.GetEvent(ctx, withToken(carol, &api.GetEventRequest{Code: ev.Code}))
	expectCode(t, err, connect.CodePermissionDenied)
	_, err = env.events.GetEvent(ctx, withToken(carol, &api.GetEventRequest{Code: "NOPE00"}))
	expectCode(t, err, connect.CodeNotFound)
	_, err = env.events.CastVote(ctx, withToken(carol, &api.CastVoteRequest{Code: ev.Code, Category: "DATE", OptionID: d1}))
	expectCode(t, err, connect.CodePermissionDenied)

	loc, err := env.events.AddLocationOption(ctx, withToken(bob, &api.AddLocationOptionRequest{Code: ev.Code, Label: "Bakso Pak Min"}))
	if err != nil {
		t.Fatalf("AddLocationOption failed: %v", err)
	}
	if len(loc.Msg.Ranking) != 2 || loc.Msg.Option.Votes != 0 {
		t.Errorf("Unexpected location ranking: %+v", loc.Msg)
	}
	bakso := loc.Msg.Option.ID

	_, err = env.events.CastVote(ctx, withToken(bob, &api.CastVoteRequest{Code: ev.Code, Category: "TIME", OptionID: d1}))
	expectCode(t, err, connect.CodeInvalidArgument)
	_, err = env.events.CastVote(ctx, withToken(bob, &api.CastVoteRequest{Code: ev.Code, Category: "DATE", OptionID: "missing"}))
	expectCode(t, err, connect.CodeNotFound)
	// A location ID is not a valid date vote.
	_, err = env.events.CastVote(ctx, withToken(bob, &api.CastVoteRequest{Code: ev.Code, Category: "DATE", OptionID: bakso}))
	expectCode(t, err, connect.CodeNotFound)

	votes := []struct {
		token, category, option string
	}{
		{alice, "DATE", d1},
		{alice, "DATE", d2}, // re-vote replaces
		{bob, "date", d2},
		{bob, "LOCATION", bakso},
	}
	for _, v := range votes {
		if _, err := env.events.CastVote(ctx, withToken(v.token, &api.CastVoteRequest{Code: ev.Code, Category: v.category, OptionID: v.option})); err != nil {
			t.Fatalf("CastVote(%s, %s) failed: %v", v.category, v.option, err)
		}
	}

	detail := env.get(t, alice, ev.Code)
	if detail.DateRanking[0].ID != d2 || detail.DateRanking[0].Votes != 2 || detail.DateRanking[1].Votes != 0 {
		t.Errorf("Unexpected date ranking: %+v %+v", detail.DateRanking[0], detail.DateRanking[1])
	}
	if detail.MyVotes.Date != d2 || detail.MyVotes.Location != "" {
		t.Errorf("Unexpected MyVotes: %+v", detail.MyVotes)
	}

	msg, err := env.events.PostMessage(ctx, withToken(bob, &api.PostMessageRequest{Code: ev.Code, Text: "  see you there  "}))
	if err != nil {
		t.Fatalf("PostMessage failed: %v", err)
	}
	if msg.Msg.Message.Text != "see you there" || msg.Msg.Message.Name != "bob" {
		t.Errorf("Unexpected message: %+v", msg.Msg.Message)
	}
	_, err = env.events.PostMessage(ctx, withToken(bob, &api.PostMessageRequest{Code: ev.Code, Text: ""}))
	expectCode(t, err, connect.CodeInvalidArgument)

	_, err = env.events.FinalizeEvent(ctx, withToken(bob, &api.FinalizeEventRequest{Code: ev.Code}))
	expectCode(t, err, connect.CodePermissionDenied)

	final, err := env.events.FinalizeEvent(ctx, withToken(alice, &api.FinalizeEventRequest{Code: ev.Code}))
	if err != nil {
		t.Fatalf("FinalizeEvent failed: %v", err)
	}
	got := final.Msg.Event
	if got.Status != "FINAL" || got.PollingOpen {
		t.Errorf("Expected FINAL and closed, got %s open=%v", got.Status, got.PollingOpen)
	}
	if got.FinalDateTime != "2026-10-25T12:00:00Z" || got.FinalLocation != "Bakso Pak Min" {
		t.Errorf("Unexpected selections: %q %q", got.FinalDateTime, got.FinalLocation)
	}
	if env.announcer.calls() != 1 {
		t.Errorf("Expected one announcement, got %d", env.announcer.calls())
	}
	if v := testutil.ToFloat64(env.metrics.Finalizations.WithLabelValues(metrics.TriggerOwner)); v != 1 {
		t.Errorf("Expected owner finalization counted, got %v", v)
	}

	_, err = env.events.FinalizeEvent(ctx, withToken(alice, &api.FinalizeEventRequest{Code: ev.Code}))
	expectCode(t, err, connect.CodeFailedPrecondition)
	_, err = env.events.CastVote(ctx, withToken(bob, &api.CastVoteRequest{Code: ev.Code, Category: "DATE", OptionID: d1}))
	expectCode(t, err, connect.CodeFailedPrecondition)
	_, err = env.events.AddDateOption(ctx, withToken(bob, &api.AddDateOptionRequest{Code: ev.Code, DateTime: "2026-11-01T19:00:00Z"}))
	expectCode(t, err, connect.CodeFailedPrecondition)

	// Chat stays open after finalization.
	if _, err := env.events.PostMessage(ctx, withToken(alice, &api.PostMessageRequest{Code: ev.Code, Text: "booked!"})); err != nil {
		t.Errorf("PostMessage after FINAL failed: %v", err)
	}

	list, err := env.events.ListEvents(ctx, withToken(bob, &api.ListEventsRequest{}))
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(list.Msg.Events) != 1 || list.Msg.Events[0].Code != ev.Code || list.Msg.Events[0].Status != "FINAL" {
		t.Errorf("Unexpected list: %+v", list.Msg.Events)
	}
	carolList, err := env.events.ListEvents(ctx, withToken(carol, &api.ListEventsRequest{}))
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(carolList.Msg.Events) != 0 {
		t.Errorf("Expected no events for carol, got %d", len(carolList.Msg.Events))
	}
}

func TestDeadlineFinalizesOnRead(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "Alice")

	ev := env.createEvent(t, alice, &api.CreateEventRequest{
		Title:           "Lunch",
		Deadline:        "2026-10-16",
		DateOptions:     []string{"2026-10-18T12:00:00Z", "2026-10-19T12:00:00Z"},
		LocationOptions: []string{"Canteen"},
	})
	d2 := ev.DateRanking[1].ID
	if _, err := env.events.CastVote(ctx, withToken(alice, &api.CastVoteRequest{Code: ev.Code, Category: "DATE", OptionID: d2})); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	// The last second of the deadline day is still open.
	env.clock.Set(time.Date(2026, 10, 16, 23, 59, 59, 0, time.UTC))
	if got := env.get(t, alice, ev.Code); got.Status != "POLLING" || !got.PollingOpen {
		t.Fatalf("Expected POLLING at the deadline, got %s", got.Status)
	}

	env.clock.Set(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	list, err := env.events.ListEvents(ctx, withToken(alice, &api.ListEventsRequest{}))
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if list.Msg.Events[0].Status != "FINAL" || list.Msg.Events[0].FinalDateTime != "2026-10-19T12:00:00Z" {
		t.Errorf("Expected listing to show the finalized event, got %+v", list.Msg.Events[0])
	}

	got := env.get(t, alice, ev.Code)
	if got.Status != "FINAL" || got.FinalLocation != "Canteen" {
		t.Errorf("Unexpected event after deadline: %+v", got)
	}
	if env.announcer.calls() != 1 {
		t.Errorf("Expected exactly one announcement, got %d", env.announcer.calls())
	}
	if v := testutil.ToFloat64(env.metrics.Finalizations.WithLabelValues(metrics.TriggerDeadline)); v != 1 {
		t.Errorf("Expected one deadline finalization, got %v", v)
	}

	_, err = env.events.FinalizeEvent(ctx, withToken(alice, &api.FinalizeEventRequest{Code: ev.Code}))
	expectCode(t, err, connect.CodeFailedPrecondition)
}

func TestBillFlow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.register(t, "alice@example.com", "Alice")
	bob := env.register(t, "bob@example.com", "Bob")
	carol := env.register(t, "carol@example.com", "Carol")

	ev := env.createEvent(t, alice, &api.CreateEventRequest{Title: "Dinner"})
	env.join(t, bob, ev.Code)

	_, err := env.bills.GetFinalSplit(ctx, withToken(carol, &api.GetFinalSplitRequest{Code: ev.Code}))
	expectCode(t, err, connect.CodePermissionDenied)

	detail := env.join(t, carol, ev.Code)
	aliceID := memberID(t, detail, "Alice")
	bobID := memberID(t, detail, "Bob")

	_, err = env.bills.SetBill(ctx, withToken(bob, &api.SetBillRequest{Code: ev.Code, Total: -1}))
	expectCode(t, err, connect.CodeInvalidArgument)
	_, err = env.bills.SetBill(ctx, withToken(bob, &api.SetBillRequest{Code: ev.Code, Total: 100, SplitMode: "HALF"}))
	expectCode(t, err, connect.CodeInvalidArgument)
	_, err = env.bills.SetBill(ctx, withToken(bob, &api.SetBillRequest{Code: ev.Code, Total: math.MaxInt64}))
	expectCode(t, err, connect.CodeInvalidArgument)

	set, err := env.bills.SetBill(ctx, withToken(bob, &api.SetBillRequest{Code: ev.Code, Total: 100}))
	if err != nil {
		t.Fatalf("SetBill failed: %v", err)
	}
	if set.Msg.Bill.SplitMode != "EVEN" {
		t.Errorf("Expected default EVEN mode, got %q", set.Msg.Bill.SplitMode)
	}

	split, err := env.bills.GetFinalSplit(ctx, withToken(carol, &api.GetFinalSplitRequest{Code: ev.Code}))
	if err != nil {
		t.Fatalf("GetFinalSplit failed: %v", err)
	}
	wantEven := []int64{34, 33, 33}
	for i, row := range split.Msg.Rows {
		if row.Amount != wantEven[i] {
			t.Errorf("row %d (%s) = %d, want %d", i, row.Name, row.Amount, wantEven[i])
		}
	}

	if _, err := env.bills.SetBill(ctx, withToken(alice, &api.SetBillRequest{Code: ev.Code, Total: 100000, SplitMode: "item"})); err != nil {
		t.Fatalf("SetBill ITEM failed: %v", err)
	}

	_, err = env.bills.AddBillItem(ctx, withToken(bob, &api.AddBillItemRequest{Code: ev.Code, Name: "Sate", Cost: 0, AssigneeMemberID: bobID}))
	expectCode(t, err, connect.CodeInvalidArgument)
	_, err = env.bills.AddBillItem(ctx, withToken(bob, &api.AddBillItemRequest{Code: ev.Code, Name: "Sate", Cost: 100, AssigneeMemberID: "stranger"}))
	expectCode(t, err, connect.CodeInvalidArgument)
	_, err = env.bills.AddBillItem(ctx, withToken(bob, &api.AddBillItemRequest{Code: ev.Code, Name: "Sate", Cost: math.MaxInt64, AssigneeMemberID: bobID}))
	expectCode(t, err, connect.CodeInvalidArgument)

	added, err := env.bills.AddBillItem(ctx, withToken(bob, &api.AddBillItemRequest{Code: ev.Code, Name: "Sate", Cost: 30000, AssigneeMemberID: bobID}))
	if err != nil {
		t.Fatalf("AddBillItem failed: %v", err)
	}
	itemID := added.Msg.Item.ID
	if added.Msg.Item.CreatedBy != bobID {
		t.Errorf("Expected item created by bob, got %q", added.Msg.Item.CreatedBy)
	}
	if _, err := env.bills.AddBillItem(ctx, withToken(alice, &api.AddBillItemRequest{Code: ev.Code, Name: "Es teh", Cost: 10000, AssigneeMemberID: aliceID})); err != nil {
		t.Fatalf("AddBillItem failed: %v", err)
	}

	split, err = env.bills.GetFinalSplit(ctx, withToken(alice, &api.GetFinalSplitRequest{Code: ev.Code}))
	if err != nil {
		t.Fatalf("GetFinalSplit failed: %v", err)
	}
	// Leftover 60000 split three ways.
	want := map[string]int64{"Alice": 30000, "Bob": 50000, "Carol": 20000}
	var sum int64
	for _, row := range split.Msg.Rows {
		if row.Amount != want[row.Name] {
			t.Errorf("%s owes %d, want %d", row.Name, row.Amount, want[row.Name])
		}
		sum += row.Amount
	}
	if sum != 100000 {
		t.Errorf("Split sums to %d, want 100000", sum)
	}

	_, err = env.bills.RemoveBillItem(ctx, withToken(carol, &api.RemoveBillItemRequest{Code: ev.Code, ItemID: itemID}))
	expectCode(t, err, connect.CodePermissionDenied)
	_, err = env.bills.RemoveBillItem(ctx, withToken(alice, &api.RemoveBillItemRequest{Code: ev.Code, ItemID: "missing"}))
	expectCode(t, err, connect.CodeNotFound)

	removed, err := env.bills.RemoveBillItem(ctx, withToken(alice, &api.RemoveBillItemRequest{Code: ev.Code, ItemID: itemID}))
	if err != nil {
		t.Fatalf("Owner RemoveBillItem failed: %v", err)
	}
	if len(removed.Msg.Bill.Items) != 1 || removed.Msg.Bill.Items[0].Name != "Es teh" {
		t.Errorf("Unexpected items after removal: %+v", removed.Msg.Bill.Items)
	}
}

func TestPreviewSplit(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	members := []*api.Member{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}}

	// Public: no token needed.
	resp, err := env.bills.PreviewSplit(ctx, connect.NewRequest(&api.PreviewSplitRequest{Members: members, Total: 100}))
	if err != nil {
		t.Fatalf("PreviewSplit failed: %v", err)
	}
	want := []int64{34, 33, 33}
	for i, row := range resp.Msg.Rows {
		if row.Amount != want[i] {
			t.Errorf("row %d = %d, want %d", i, row.Amount, want[i])
		}
	}

	resp, err = env.bills.PreviewSplit(ctx, connect.NewRequest(&api.PreviewSplitRequest{
		Members:   members,
		Total:     100,
		SplitMode: "ITEM",
		Items:     []*api.BillItem{{Name: "Feast", Cost: 120, AssigneeMemberID: "a"}},
	}))
	if err != nil {
		t.Fatalf("PreviewSplit ITEM failed: %v", err)
	}
	if resp.Msg.Total != 100 {
		t.Errorf("preview total = %d, want 100", resp.Msg.Total)
	}
	wantItem := []int64{114, -7, -7}
	for i, row := range resp.Msg.Rows {
		if row.Amount != wantItem[i] {
			t.Errorf("item row %d = %d, want %d", i, row.Amount, wantItem[i])
		}
	}

	tests := []struct {
		name string
		req  *api.PreviewSplitRequest
		code connect.Code
	}{
		{"no members", &api.PreviewSplitRequest{Total: 10}, connect.CodeInvalidArgument},
		{"negative total", &api.PreviewSplitRequest{Members: members, Total: -5}, connect.CodeInvalidArgument},
		{"unknown mode", &api.PreviewSplitRequest{Members: members, SplitMode: "WEIGHTED"}, connect.CodeInvalidArgument},
		{"unknown assignee", &api.PreviewSplitRequest{Members: members, SplitMode: "ITEM", Items: []*api.BillItem{{Cost: 5, AssigneeMemberID: "z"}}}, connect.CodeInvalidArgument},
		{"duplicate member", &api.PreviewSplitRequest{Members: append(members, &api.Member{ID: "a"})}, connect.CodeInvalidArgument},
		{"zero cost", &api.PreviewSplitRequest{Members: members, SplitMode: "ITEM", Items: []*api.BillItem{{Cost: 0, AssigneeMemberID: "a"}}}, connect.CodeInvalidArgument},
		{"total over limit", &api.PreviewSplitRequest{Members: members, Total: planner.MaxAmount + 1}, connect.CodeInvalidArgument},
		{"cost over limit", &api.PreviewSplitRequest{Members: members, Total: 10, SplitMode: "ITEM", Items: []*api.BillItem{{Cost: planner.MaxAmount + 1, AssigneeMemberID: "a"}}}, connect.CodeInvalidArgument},
		{"max int costs", &api.PreviewSplitRequest{Members: members[:2], Total: 10, SplitMode: "ITEM", Items: []*api.BillItem{
			{Cost: math.MaxInt64, AssigneeMemberID: "a"},
			{Cost: math.MaxInt64, AssigneeMemberID: "b"},
		}}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bills.PreviewSplit(ctx, connect.NewRequest(tt.req))
			expectCode(t, err, tt.code)
		})
	}
}

func TestListNotifications(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com", "Alice")

	soon := env.createEvent(t, alice, &api.CreateEventRequest{
		Title:       "Karaoke",
		DateOptions: []string{testNow.Add(20 * time.Hour).Format(time.RFC3339)},
	})
	env.createEvent(t, alice, &api.CreateEventRequest{Title: "Undecided"})

	empty, err := env.feed.ListNotifications(ctx, withToken(alice, &api.ListNotificationsRequest{}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(empty.Msg.Notifications) != 0 {
		t.Fatalf("Expected empty feed, got %+v", empty.Msg.Notifications)
	}

	if _, err := env.events.FinalizeEvent(ctx, withToken(alice, &api.FinalizeEventRequest{Code: soon.Code})); err != nil {
		t.Fatalf("FinalizeEvent failed: %v", err)
	}

	resp, err := env.feed.ListNotifications(ctx, withToken(alice, &api.ListNotificationsRequest{}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	feed := resp.Msg.Notifications
	if len(feed) != 2 {
		t.Fatalf("Expected 2 entries, got %+v", feed)
	}
	if feed[0].ID != soon.Code+"-FINAL" || feed[1].ID != soon.Code+"-TOMORROW" {
		t.Errorf("Unexpected feed IDs: %s, %s", feed[0].ID, feed[1].ID)
	}
	if feed[1].Text != "Your event ‘Karaoke’ starts tomorrow." {
		t.Errorf("Unexpected text: %q", feed[1].Text)
	}
}
