package planner

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mmynk/hangout/internal/models"
)

const (
	maxMemberName  = 30
	maxMessageText = 500
)

// Engine applies the event rules: membership gating, the polling window and
// finalization. It mutates events in memory only; loading and saving is the
// caller's job.
type Engine struct {
	// Location is the timezone in which deadline dates end. Nil means UTC.
	Location *time.Location
}

// NewEngine creates an Engine evaluating deadlines in loc.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{Location: loc}
}

// NewEventInput is the validated input of CreateEvent.
type NewEventInput struct {
	Title       string
	Description string
	// Deadline in models.DeadlineLayout, or empty.
	Deadline string
	// ProposedDates are RFC 3339 timestamps.
	ProposedDates  []string
	LocationLabels []string
}

// CreateEvent builds a new POLLING event owned by owner, who joins as the
// first member. Initial options are attributed to the owner.
func (e *Engine) CreateEvent(code string, owner *models.User, in NewEventInput, now time.Time) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	deadline := strings.TrimSpace(in.Deadline)
	if deadline != "" {
		if _, err := ParseDeadline(deadline); err != nil {
			return nil, err
		}
	}

	ev := models.NewEvent(code, owner.ID, title)
	ev.Description = strings.TrimSpace(in.Description)
	ev.Deadline = deadline
	ev.CreatedAt = now.Unix()
	ev.UpdatedAt = now.Unix()

	e.Join(ev, owner, now)

	for _, iso := range in.ProposedDates {
		at, err := parseOptionTime(iso)
		if err != nil {
			return nil, err
		}
		ev.DateOptions = append(ev.DateOptions, models.DateOption{
			ID: uuid.New().String(), At: at, CreatedBy: owner.ID, CreatedAt: now.Unix(),
		})
	}
	for _, label := range in.LocationLabels {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("%w: location label is required", ErrValidation)
		}
		ev.LocationOptions = append(ev.LocationOptions, models.LocationOption{
			ID: uuid.New().String(), Label: label, CreatedBy: owner.ID, CreatedAt: now.Unix(),
		})
	}
	return ev, nil
}

// Join adds user as a member. Joining twice is a no-op that returns the
// existing member and false.
func (e *Engine) Join(ev *models.Event, user *models.User, now time.Time) (models.Member, bool) {
	if m, ok := ev.MemberByUser(user.ID); ok {
		return m, false
	}
	m := models.Member{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Name:     MemberName(user),
		JoinedAt: now.Unix(),
	}
	ev.Members = append(ev.Members, m)
	ev.UpdatedAt = now.Unix()
	return m, true
}

// RequireMember returns the member backed by userID, or ErrForbidden.
func RequireMember(ev *models.Event, userID string) (models.Member, error) {
	m, ok := ev.MemberByUser(userID)
	if !ok {
		return models.Member{}, fmt.Errorf("%w: join event %s first", ErrForbidden, ev.Code)
	}
	return m, nil
}

func (e *Engine) requireOpen(ev *models.Event, now time.Time) error {
	if !PollingOpen(ev, now, e.Location) {
		return fmt.Errorf("%w: event %s", ErrPollingClosed, ev.Code)
	}
	return nil
}

// AddDateOption appends a proposed date. iso must be RFC 3339.
func (e *Engine) AddDateOption(ev *models.Event, userID, iso string, now time.Time) (models.DateOption, error) {
	if _, err := RequireMember(ev, userID); err != nil {
		return models.DateOption{}, err
	}
	if err := e.requireOpen(ev, now); err != nil {
		return models.DateOption{}, err
	}
	at, err := parseOptionTime(iso)
	if err != nil {
		return models.DateOption{}, err
	}
	opt := models.DateOption{ID: uuid.New().String(), At: at, CreatedBy: userID, CreatedAt: now.Unix()}
	ev.DateOptions = append(ev.DateOptions, opt)
	ev.UpdatedAt = now.Unix()
	return opt, nil
}

// AddLocationOption appends a proposed location.
func (e *Engine) AddLocationOption(ev *models.Event, userID, label string, now time.Time) (models.LocationOption, error) {
	if _, err := RequireMember(ev, userID); err != nil {
		return models.LocationOption{}, err
	}
	if err := e.requireOpen(ev, now); err != nil {
		return models.LocationOption{}, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return models.LocationOption{}, fmt.Errorf("%w: location label is required", ErrValidation)
	}
	opt := models.LocationOption{ID: uuid.New().String(), Label: label, CreatedBy: userID, CreatedAt: now.Unix()}
	ev.LocationOptions = append(ev.LocationOptions, opt)
	ev.UpdatedAt = now.Unix()
	return opt, nil
}

// CastVote records the member's choice for the category, replacing any
// earlier vote. The option must exist in the event.
func (e *Engine) CastVote(ev *models.Event, userID string, category models.Category, optionID string, now time.Time) error {
	member, err := RequireMember(ev, userID)
	if err != nil {
		return err
	}
	if err := e.requireOpen(ev, now); err != nil {
		return err
	}
	if !hasOption(ev, category, optionID) {
		return fmt.Errorf("%w: %s option %q", ErrNotFound, strings.ToLower(string(category)), optionID)
	}
	ev.Ledger(category)[member.ID] = optionID
	ev.UpdatedAt = now.Unix()
	return nil
}

func hasOption(ev *models.Event, category models.Category, optionID string) bool {
	switch category {
	case models.CategoryDate:
		for _, o := range ev.DateOptions {
			if o.ID == optionID {
				return true
			}
		}
	case models.CategoryLocation:
		for _, o := range ev.LocationOptions {
			if o.ID == optionID {
				return true
			}
		}
	}
	return false
}

// PostMessage appends a chat message from a member. Chat stays open after
// finalization.
func (e *Engine) PostMessage(ev *models.Event, userID, text string, now time.Time) (models.Message, error) {
	member, err := RequireMember(ev, userID)
	if err != nil {
		return models.Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxMessageText {
		return models.Message{}, fmt.Errorf("%w: message must be 1-%d characters", ErrValidation, maxMessageText)
	}
	msg := models.Message{
		ID:       uuid.New().String(),
		MemberID: member.ID,
		UserID:   userID,
		Name:     member.Name,
		Text:     text,
		At:       now.Unix(),
	}
	ev.Messages = append(ev.Messages, msg)
	ev.UpdatedAt = now.Unix()
	return msg, nil
}

// Finalize is the owner's explicit finalize command.
func (e *Engine) Finalize(ev *models.Event, userID string, now time.Time) error {
	if ev.OwnerUserID != userID {
		return fmt.Errorf("%w: only the owner can finalize %s", ErrForbidden, ev.Code)
	}
	return FinalizeNow(ev, now)
}

// MaxAmount bounds the bill total, each item cost and the sum of item costs,
// so split arithmetic stays within int64.
const MaxAmount int64 = 1_000_000_000_000_000

// ValidateBillAmounts checks a bill against MaxAmount. Costs must be
// positive and the total must not be negative.
func ValidateBillAmounts(bill models.Bill) error {
	if bill.Total < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrValidation)
	}
	if bill.Total > MaxAmount {
		return fmt.Errorf("%w: total must not exceed %d", ErrValidation, MaxAmount)
	}
	var sum int64
	for _, item := range bill.Items {
		if item.Cost <= 0 {
			return fmt.Errorf("%w: item cost must be positive", ErrValidation)
		}
		if item.Cost > MaxAmount || sum > MaxAmount-item.Cost {
			return fmt.Errorf("%w: item costs must not exceed %d", ErrValidation, MaxAmount)
		}
		sum += item.Cost
	}
	return nil
}

// SetBill sets the bill total and, when mode is non-empty, the split mode.
func (e *Engine) SetBill(ev *models.Event, userID string, total int64, mode models.SplitMode, now time.Time) error {
	if _, err := RequireMember(ev, userID); err != nil {
		return err
	}
	if err := ValidateBillAmounts(models.Bill{Total: total}); err != nil {
		return err
	}
	if mode != "" && !mode.Valid() {
		return fmt.Errorf("%w: unknown split mode %q", ErrValidation, mode)
	}
	ev.Bill.Total = total
	if mode != "" {
		ev.Bill.SplitMode = mode
	}
	if ev.Bill.SplitMode == "" {
		ev.Bill.SplitMode = models.SplitEven
	}
	ev.UpdatedAt = now.Unix()
	return nil
}

// AddBillItem appends an itemized cost. The assignee must be a member.
func (e *Engine) AddBillItem(ev *models.Event, userID, name string, cost int64, assigneeMemberID string, now time.Time) (models.BillItem, error) {
	member, err := RequireMember(ev, userID)
	if err != nil {
		return models.BillItem{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.BillItem{}, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if _, ok := ev.MemberByID(assigneeMemberID); !ok {
		return models.BillItem{}, fmt.Errorf("%w: assignee %q is not a member of %s", ErrInvalidReference, assigneeMemberID, ev.Code)
	}
	item := models.BillItem{
		ID:               uuid.New().String(),
		Name:             name,
		Cost:             cost,
		AssigneeMemberID: assigneeMemberID,
		CreatedBy:        member.ID,
	}
	next := ev.Bill
	next.Items = append(slices.Clip(ev.Bill.Items), item)
	if err := ValidateBillAmounts(next); err != nil {
		return models.BillItem{}, err
	}
	ev.Bill.Items = next.Items
	ev.UpdatedAt = now.Unix()
	return item, nil
}

// RemoveBillItem deletes an item. Only the member who added it or the
// event owner may remove it.
func (e *Engine) RemoveBillItem(ev *models.Event, userID, itemID string, now time.Time) error {
	member, err := RequireMember(ev, userID)
	if err != nil {
		return err
	}
	for i, item := range ev.Bill.Items {
		if item.ID != itemID {
			continue
		}
		if item.CreatedBy != member.ID && ev.OwnerUserID != userID {
			return fmt.Errorf("%w: only the item creator or the owner can remove it", ErrForbidden)
		}
		ev.Bill.Items = append(ev.Bill.Items[:i], ev.Bill.Items[i+1:]...)
		ev.UpdatedAt = now.Unix()
		return nil
	}
	return fmt.Errorf("%w: bill item %q", ErrNotFound, itemID)
}

// MemberName derives a member display name: the user's display name, else
// the email prefix, capped at 30 characters.
func MemberName(user *models.User) string {
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(user.Email, "@")
	}
	if name == "" {
		name = "user"
	}
	if utf8.RuneCountInString(name) > maxMemberName {
		name = string([]rune(name)[:maxMemberName])
	}
	return name
}

func parseOptionTime(iso string) (time.Time, error) {
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(iso))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date option %q must be RFC 3339", ErrValidation, iso)
	}
	return at, nil
}
