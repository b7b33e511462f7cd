package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/mmynk/hangout/internal/models"
)

// Announcer is told about every POLLING to FINAL transition after the event
// has been saved.
type Announcer interface {
	Finalized(ctx context.Context, ev *models.Event) error
}

// Announcers fans a finalization out to several announcers. All of them are
// called; the errors are joined.
type Announcers []Announcer

func (as Announcers) Finalized(ctx context.Context, ev *models.Event) error {
	var errs []error
	for _, a := range as {
		if err := a.Finalized(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type channelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAnnouncer posts finalized events to a Discord channel over the REST
// API. It never opens a gateway connection.
type DiscordAnnouncer struct {
	sender    channelSender
	channelID string
	tr        *Translator
	opts      options
}

func NewDiscordAnnouncer(token, channelID string, tr *Translator, opts ...Option) (*DiscordAnnouncer, error) {
	if token == "" || channelID == "" {
		return nil, errors.New("discord: token and channel ID are required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	return newDiscordAnnouncer(s, channelID, tr, opts...), nil
}

func newDiscordAnnouncer(sender channelSender, channelID string, tr *Translator, opts ...Option) *DiscordAnnouncer {
	return &DiscordAnnouncer{sender: sender, channelID: channelID, tr: tr, opts: buildOptions(opts)}
}

func (d *DiscordAnnouncer) Finalized(ctx context.Context, ev *models.Event) error {
	date, location := finalDetails(d.tr, d.opts.locale, ev, d.opts.loc)
	content := d.tr.T(d.opts.locale, "announce_final", map[string]any{
		"Title":    ev.Title,
		"Code":     ev.Code,
		"Date":     date,
		"Location": location,
	})
	if _, err := d.sender.ChannelMessageSend(d.channelID, content, discordgo.WithContext(ctx)); err != nil {
		d.opts.metrics.NotifierFailed()
		return fmt.Errorf("discord: announce %s: %w", ev.Code, err)
	}
	return nil
}

// UserLookup resolves member accounts.
type UserLookup interface {
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// MailAnnouncer emails the result to members who opted into event updates.
type MailAnnouncer struct {
	users  UserLookup
	mailer Mailer
	tr     *Translator
	opts   options
}

func NewMailAnnouncer(users UserLookup, mailer Mailer, tr *Translator, opts ...Option) *MailAnnouncer {
	return &MailAnnouncer{users: users, mailer: mailer, tr: tr, opts: buildOptions(opts)}
}

func (a *MailAnnouncer) Finalized(ctx context.Context, ev *models.Event) error {
	users, err := a.users.GetUsersByIDs(ctx, memberUserIDs(ev))
	if err != nil {
		return fmt.Errorf("load members of %s: %w", ev.Code, err)
	}

	locale := a.opts.locale
	date, location := finalDetails(a.tr, locale, ev, a.opts.loc)
	var errs []error
	for _, m := range ev.Members {
		user, ok := users[m.UserID]
		if !ok || user.Email == "" || !user.Notifications.Enabled || !user.Notifications.EventUpdates {
			continue
		}
		data := map[string]any{"Title": ev.Title, "Name": displayName(user, m)}
		html, err := renderEmail(emailView{
			Title:         ev.Title,
			Badge:         a.tr.T(locale, "update_badge", nil),
			Greeting:      a.tr.T(locale, "reminder_greeting", data),
			Body:          a.tr.T(locale, "update_body", data),
			DateLabel:     a.tr.T(locale, "reminder_date_label", nil),
			Date:          date,
			LocationLabel: a.tr.T(locale, "reminder_location_label", nil),
			Location:      location,
			CTA:           a.tr.T(locale, "reminder_cta", nil),
			URL:           a.opts.eventURL(ev.Code),
			Footer:        a.tr.T(locale, "reminder_footer", nil),
		})
		if err != nil {
			return err
		}
		msg := Email{To: user.Email, Subject: a.tr.T(locale, "update_subject", data), HTML: html}
		if err := a.mailer.Send(ctx, msg); err != nil {
			a.opts.metrics.NotifierFailed()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
