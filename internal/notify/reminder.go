package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/models"
)

// Reminder kinds, also used as metric labels.
const (
	KindH3 = "h3"
	KindH1 = "h1"
)

// EventSource is the read-only storage view the notifiers need.
type EventSource interface {
	ListFinalEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Options shared by the reminder job and the mail announcer.
type options struct {
	loc       *time.Location
	locale    string
	publicURL string
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*options)

// WithLocation sets the zone used for calendar-day math and date display.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// WithLocale sets the language of outgoing texts.
func WithLocale(locale string) Option {
	return func(o *options) { o.locale = locale }
}

// WithPublicURL sets the base URL used for links in emails.
func WithPublicURL(url string) Option {
	return func(o *options) { o.publicURL = strings.TrimRight(url, "/") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{loc: time.UTC, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) eventURL(code string) string {
	if o.publicURL == "" {
		return ""
	}
	return o.publicURL + "/events/" + code
}

// Reminder sends H-3 and H-1 emails for finalized events.
//
// The day difference is counted in calendar days in the configured zone, so
// a run at any hour on the 12th reminds about events on the 15th (H-3) and
// the 13th (H-1).
type Reminder struct {
	events EventSource
	mailer Mailer
	tr     *Translator
	opts   options
}

func NewReminder(events EventSource, mailer Mailer, tr *Translator, opts ...Option) *Reminder {
	return &Reminder{events: events, mailer: mailer, tr: tr, opts: buildOptions(opts)}
}

// Run sends the reminders due on the calendar day of now and returns how
// many emails were delivered. A failed delivery is logged and skipped.
func (r *Reminder) Run(ctx context.Context, now time.Time) (int, error) {
	local := now.In(r.opts.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.opts.loc)

	sent := 0
	for _, w := range []struct {
		kind string
		days int
	}{{KindH3, 3}, {KindH1, 1}} {
		from := today.AddDate(0, 0, w.days)
		to := from.AddDate(0, 0, 1)
		events, err := r.events.ListFinalEvents(ctx, from, to)
		if err != nil {
			return sent, fmt.Errorf("list %s events: %w", w.kind, err)
		}
		for _, ev := range events {
			n, err := r.remind(ctx, ev, w.kind)
			if err != nil {
				return sent, err
			}
			sent += n
		}
	}
	r.opts.logger.Info("Reminder run finished", "date", today.Format(models.DeadlineLayout), "sent", sent)
	return sent, nil
}

func (r *Reminder) remind(ctx context.Context, ev *models.Event, kind string) (int, error) {
	users, err := r.events.GetUsersByIDs(ctx, memberUserIDs(ev))
	if err != nil {
		return 0, fmt.Errorf("load members of %s: %w", ev.Code, err)
	}

	sent := 0
	for _, m := range ev.Members {
		user, ok := users[m.UserID]
		if !ok || user.Email == "" || !wantsReminder(user.Notifications, kind) {
			continue
		}
		msg, err := r.compose(ev, user, m, kind)
		if err != nil {
			return sent, err
		}
		if err := r.mailer.Send(ctx, msg); err != nil {
			r.opts.logger.Error("Failed to send reminder", "code", ev.Code, "kind", kind, "to", user.Email, "error", err)
			r.opts.metrics.NotifierFailed()
			continue
		}
		r.opts.metrics.ReminderSent(kind)
		sent++
	}
	return sent, nil
}

func (r *Reminder) compose(ev *models.Event, user *models.User, m models.Member, kind string) (Email, error) {
	locale := r.opts.locale
	data := map[string]any{"Title": ev.Title, "Name": displayName(user, m)}
	date, location := finalDetails(r.tr, locale, ev, r.opts.loc)

	html, err := renderEmail(emailView{
		Title:         ev.Title,
		Badge:         r.tr.T(locale, "reminder_"+kind+"_badge", nil),
		Greeting:      r.tr.T(locale, "reminder_greeting", data),
		Body:          r.tr.T(locale, "reminder_"+kind+"_body", data),
		DateLabel:     r.tr.T(locale, "reminder_date_label", nil),
		Date:          date,
		LocationLabel: r.tr.T(locale, "reminder_location_label", nil),
		Location:      location,
		CTA:           r.tr.T(locale, "reminder_cta", nil),
		URL:           r.opts.eventURL(ev.Code),
		Footer:        r.tr.T(locale, "reminder_footer", nil),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      user.Email,
		Subject: r.tr.T(locale, "reminder_"+kind+"_subject", data),
		HTML:    html,
	}, nil
}

func wantsReminder(p models.NotificationPrefs, kind string) bool {
	if !p.Enabled {
		return false
	}
	switch kind {
	case KindH3:
		return p.ReminderH3
	case KindH1:
		return p.ReminderH1
	}
	return false
}

func memberUserIDs(ev *models.Event) []string {
	ids := make([]string, 0, len(ev.Members))
	for _, m := range ev.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func displayName(user *models.User, m models.Member) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return m.Name
}
