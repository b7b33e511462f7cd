package planner

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/hangout/internal/models"
)

var (
	owner = &models.User{ID: "u-owner", Email: "alice@example.com"}
	bob   = &models.User{ID: "u-bob", Email: "bob@example.com", DisplayName: "Bobby"}
	carol = &models.User{ID: "u-carol", Email: "carol@example.com"}
	eve   = &models.User{ID: "u-eve", Email: "eve@example.com"}

	testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
)

func newTestEvent(t *testing.T, e *Engine, deadline string) *models.Event {
	t.Helper()
	ev, err := e.CreateEvent("ABC123", owner, NewEventInput{
		Title:          " Dinner ",
		Deadline:       deadline,
		ProposedDates:  []string{"2026-11-01T19:00:00+07:00", "2026-11-02T19:00:00+07:00"},
		LocationLabels: []string{"Warung Sate"},
	}, testNow)
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	return ev
}

func TestCreateEvent(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "2026-10-20")

	if ev.Title != "Dinner" {
		t.Errorf("title = %q, want trimmed Dinner", ev.Title)
	}
	if ev.Status != models.StatusPolling {
		t.Errorf("status = %s, want POLLING", ev.Status)
	}
	if len(ev.Members) != 1 || ev.Members[0].UserID != owner.ID || ev.Members[0].Name != "alice" {
		t.Errorf("owner should be first member named alice, got %+v", ev.Members)
	}
	if len(ev.DateOptions) != 2 || len(ev.LocationOptions) != 1 {
		t.Errorf("options = %d dates / %d locations, want 2/1", len(ev.DateOptions), len(ev.LocationOptions))
	}
	if ev.DateOptions[0].CreatedBy != owner.ID {
		t.Errorf("initial options should be attributed to owner")
	}
	if ev.Bill.SplitMode != models.SplitEven {
		t.Errorf("bill mode = %s, want EVEN", ev.Bill.SplitMode)
	}
}

func TestCreateEventValidation(t *testing.T) {
	e := NewEngine(time.UTC)
	tests := []struct {
		name string
		in   NewEventInput
	}{
		{"missing title", NewEventInput{Title: "  "}},
		{"bad deadline", NewEventInput{Title: "x", Deadline: "15/10/2026"}},
		{"bad date option", NewEventInput{Title: "x", ProposedDates: []string{"tomorrow"}}},
		{"blank location", NewEventInput{Title: "x", LocationLabels: []string{" "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateEvent("ABC123", owner, tt.in, testNow)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("CreateEvent() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")

	first, joined := e.Join(ev, bob, testNow)
	if !joined || first.Name != "Bobby" {
		t.Fatalf("first join = %+v, %v", first, joined)
	}
	second, joined := e.Join(ev, bob, testNow.Add(time.Minute))
	if joined {
		t.Error("second join should be a no-op")
	}
	if second.ID != first.ID || len(ev.Members) != 2 {
		t.Errorf("duplicate member created: %+v", ev.Members)
	}
}

func TestMembershipGating(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")
	dateID := ev.DateOptions[0].ID

	err := e.CastVote(ev, eve.ID, models.CategoryDate, dateID, testNow)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-member vote error = %v, want ErrForbidden", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("non-member must not be reported as not found")
	}
	if len(ev.DateVotes) != 0 {
		t.Error("non-member vote was recorded")
	}

	if _, err := e.AddDateOption(ev, eve.ID, "2026-12-01T10:00:00Z", testNow); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member AddDateOption error = %v, want ErrForbidden", err)
	}
	if _, err := e.AddLocationOption(ev, eve.ID, "Somewhere", testNow); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member AddLocationOption error = %v, want ErrForbidden", err)
	}
	if _, err := e.PostMessage(ev, eve.ID, "hi", testNow); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member PostMessage error = %v, want ErrForbidden", err)
	}
}

func TestCastVote(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")
	bobMember, _ := e.Join(ev, bob, testNow)

	d1, d2 := ev.DateOptions[0].ID, ev.DateOptions[1].ID
	if err := e.CastVote(ev, bob.ID, models.CategoryDate, d1, testNow); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if err := e.CastVote(ev, bob.ID, models.CategoryDate, d2, testNow); err != nil {
		t.Fatalf("revote error = %v", err)
	}
	if got := ev.DateVotes[bobMember.ID]; got != d2 {
		t.Errorf("vote = %s, want %s after revote", got, d2)
	}
	if len(ev.DateVotes) != 1 {
		t.Errorf("ledger has %d entries, want 1", len(ev.DateVotes))
	}

	err := e.CastVote(ev, bob.ID, models.CategoryLocation, d1, testNow)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("vote for date option in location poll error = %v, want ErrNotFound", err)
	}
}

func TestPollingClosed(t *testing.T) {
	e := NewEngine(time.UTC)

	t.Run("after deadline", func(t *testing.T) {
		ev := newTestEvent(t, e, "2026-10-14")
		err := e.CastVote(ev, owner.ID, models.CategoryDate, ev.DateOptions[0].ID, testNow)
		if !errors.Is(err, ErrPollingClosed) {
			t.Errorf("vote after deadline error = %v, want ErrPollingClosed", err)
		}
		if _, err := e.AddLocationOption(ev, owner.ID, "Late", testNow); !errors.Is(err, ErrPollingClosed) {
			t.Errorf("option after deadline error = %v, want ErrPollingClosed", err)
		}
	})

	t.Run("after finalize", func(t *testing.T) {
		ev := newTestEvent(t, e, "")
		if err := e.Finalize(ev, owner.ID, testNow); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		err := e.CastVote(ev, owner.ID, models.CategoryDate, ev.DateOptions[1].ID, testNow)
		if !errors.Is(err, ErrPollingClosed) {
			t.Errorf("vote after finalize error = %v, want ErrPollingClosed", err)
		}
		if _, err := e.AddDateOption(ev, owner.ID, "2026-12-01T10:00:00Z", testNow); !errors.Is(err, ErrPollingClosed) {
			t.Errorf("option after finalize error = %v, want ErrPollingClosed", err)
		}
		if _, err := e.PostMessage(ev, owner.ID, "see you there", testNow); err != nil {
			t.Errorf("chat should stay open after finalize, got %v", err)
		}
	})
}

func TestFinalizeRequiresOwner(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")
	e.Join(ev, bob, testNow)

	if err := e.Finalize(ev, bob.ID, testNow); !errors.Is(err, ErrForbidden) {
		t.Errorf("member Finalize() error = %v, want ErrForbidden", err)
	}
	if ev.Status != models.StatusPolling {
		t.Errorf("status = %s after rejected finalize", ev.Status)
	}
}

func TestEndToEndFinalize(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")
	e.Join(ev, bob, testNow)
	e.Join(ev, carol, testNow)
	d1, d2 := ev.DateOptions[0], ev.DateOptions[1]

	for _, v := range []struct {
		user   *models.User
		option string
	}{{owner, d1.ID}, {bob, d1.ID}, {carol, d2.ID}} {
		if err := e.CastVote(ev, v.user.ID, models.CategoryDate, v.option, testNow); err != nil {
			t.Fatalf("CastVote(%s) error = %v", v.user.ID, err)
		}
	}

	if err := e.Finalize(ev, owner.ID, testNow); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if ev.Status != models.StatusFinal {
		t.Errorf("status = %s, want FINAL", ev.Status)
	}
	if ev.FinalDateTime == nil || !ev.FinalDateTime.Equal(d1.At) {
		t.Errorf("final date = %v, want %v", ev.FinalDateTime, d1.At)
	}
	if ev.FinalLocation == nil || *ev.FinalLocation != "Warung Sate" {
		t.Errorf("final location = %v, want Warung Sate", ev.FinalLocation)
	}
}

func TestPostMessage(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")

	msg, err := e.PostMessage(ev, owner.ID, "  hello  ", testNow)
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}
	if msg.Text != "hello" || msg.Name != "alice" || msg.MemberID != ev.Members[0].ID {
		t.Errorf("message = %+v", msg)
	}
	if _, err := e.PostMessage(ev, owner.ID, strings.Repeat("x", 501), testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("long message error = %v, want ErrValidation", err)
	}
}

func TestBillMutations(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")
	bobMember, _ := e.Join(ev, bob, testNow)
	e.Join(ev, carol, testNow)

	if err := e.SetBill(ev, bob.ID, -1, "", testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("negative total error = %v, want ErrValidation", err)
	}
	if err := e.SetBill(ev, bob.ID, 100, "SPLIT", testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown mode error = %v, want ErrValidation", err)
	}
	if err := e.SetBill(ev, bob.ID, MaxAmount+1, "", testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized total error = %v, want ErrValidation", err)
	}
	if err := e.SetBill(ev, bob.ID, 100, models.SplitItem, testNow); err != nil {
		t.Fatalf("SetBill() error = %v", err)
	}
	if err := e.SetBill(ev, bob.ID, 120, "", testNow); err != nil {
		t.Fatalf("SetBill() without mode error = %v", err)
	}
	if ev.Bill.Total != 120 || ev.Bill.SplitMode != models.SplitItem {
		t.Errorf("bill = %+v, want total 120 mode ITEM", ev.Bill)
	}

	if _, err := e.AddBillItem(ev, bob.ID, "Pizza", 0, bobMember.ID, testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("zero cost error = %v, want ErrValidation", err)
	}
	if _, err := e.AddBillItem(ev, bob.ID, "Pizza", MaxAmount+1, bobMember.ID, testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("oversized cost error = %v, want ErrValidation", err)
	}
	if _, err := e.AddBillItem(ev, bob.ID, "Pizza", 50, "stranger", testNow); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("foreign assignee error = %v, want ErrInvalidReference", err)
	}
	if _, err := e.AddBillItem(ev, eve.ID, "Pizza", 50, bobMember.ID, testNow); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member add error = %v, want ErrForbidden", err)
	}

	item, err := e.AddBillItem(ev, bob.ID, "Pizza", 50, bobMember.ID, testNow)
	if err != nil {
		t.Fatalf("AddBillItem() error = %v", err)
	}
	if item.CreatedBy != bobMember.ID {
		t.Errorf("item creator = %s, want %s", item.CreatedBy, bobMember.ID)
	}

	if err := e.RemoveBillItem(ev, carol.ID, item.ID, testNow); !errors.Is(err, ErrForbidden) {
		t.Errorf("other member remove error = %v, want ErrForbidden", err)
	}
	if err := e.RemoveBillItem(ev, owner.ID, "missing", testNow); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing item error = %v, want ErrNotFound", err)
	}
	if err := e.RemoveBillItem(ev, owner.ID, item.ID, testNow); err != nil {
		t.Fatalf("owner RemoveBillItem() error = %v", err)
	}
	if len(ev.Bill.Items) != 0 {
		t.Errorf("items = %d after removal, want 0", len(ev.Bill.Items))
	}
}

func TestAddBillItemBoundsRunningSum(t *testing.T) {
	e := NewEngine(time.UTC)
	ev := newTestEvent(t, e, "")
	bobMember, _ := e.Join(ev, bob, testNow)

	if _, err := e.AddBillItem(ev, bob.ID, "Venue", MaxAmount, bobMember.ID, testNow); err != nil {
		t.Fatalf("AddBillItem() at the limit error = %v", err)
	}
	if _, err := e.AddBillItem(ev, bob.ID, "Tip", 1, bobMember.ID, testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("sum over limit error = %v, want ErrValidation", err)
	}
	if len(ev.Bill.Items) != 1 {
		t.Errorf("items = %d after rejected add, want 1", len(ev.Bill.Items))
	}
}

func TestValidateBillAmounts(t *testing.T) {
	tests := []struct {
		name    string
		bill    models.Bill
		wantErr bool
	}{
		{"empty", models.Bill{}, false},
		{"limits", models.Bill{Total: MaxAmount, Items: []models.BillItem{{Cost: MaxAmount}}}, false},
		{"negative total", models.Bill{Total: -1}, true},
		{"total over limit", models.Bill{Total: MaxAmount + 1}, true},
		{"zero cost", models.Bill{Items: []models.BillItem{{Cost: 0}}}, true},
		{"cost over limit", models.Bill{Items: []models.BillItem{{Cost: MaxAmount + 1}}}, true},
		{"max int costs", models.Bill{Total: 10, Items: []models.BillItem{{Cost: math.MaxInt64}, {Cost: math.MaxInt64}}}, true},
		{"sum over limit", models.Bill{Items: []models.BillItem{{Cost: MaxAmount / 2}, {Cost: MaxAmount/2 + 2}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBillAmounts(tt.bill)
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateBillAmounts() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateBillAmounts() error = %v", err)
			}
		})
	}
}

func TestMemberName(t *testing.T) {
	tests := []struct {
		user *models.User
		want string
	}{
		{&models.User{DisplayName: "Dewi"}, "Dewi"},
		{&models.User{Email: "budi.santoso@example.com"}, "budi.santoso"},
		{&models.User{Email: strings.Repeat("a", 40) + "@example.com"}, strings.Repeat("a", 30)},
		{&models.User{}, "user"},
	}
	for _, tt := range tests {
		if got := MemberName(tt.user); got != tt.want {
			t.Errorf("MemberName(%+v) = %q, want %q", tt.user, got, tt.want)
		}
	}
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(CodeLength)
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if len(code) != CodeLength || strings.ToUpper(code) != code {
		t.Errorf("GenerateCode() = %q, want %d upper-case characters", code, CodeLength)
	}
}
