package service

import (
	"log/slog"
	"time"

	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/notify"
)

// deps are the collaborators shared by the services. Everything has a
// usable default.
type deps struct {
	clock      func() time.Time
	loc        *time.Location
	announcer  notify.Announcer
	metrics    *metrics.Metrics
	logger     *slog.Logger
	translator *notify.Translator
	locale     string
}

// Option configures a service.
type Option func(*deps)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(d *deps) { d.clock = clock }
}

// WithLocation sets the zone in which deadline dates end.
func WithLocation(loc *time.Location) Option {
	return func(d *deps) { d.loc = loc }
}

// WithAnnouncer is notified of every finalization.
func WithAnnouncer(a notify.Announcer) Option {
	return func(d *deps) { d.announcer = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithTranslator sets the texts used for feed entries.
func WithTranslator(tr *notify.Translator, locale string) Option {
	return func(d *deps) {
		d.translator = tr
		d.locale = locale
	}
}

func newDeps(opts []Option) deps {
	d := deps{
		clock:  time.Now,
		loc:    time.UTC,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.translator == nil {
		d.translator = notify.NewTranslator("en")
	}
	return d
}
