package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/hangout/internal/metrics"
	"github.com/mmynk/hangout/internal/models"
	"github.com/mmynk/hangout/internal/planner"
	"github.com/mmynk/hangout/internal/storage"
)

// eventAccess loads and saves events for the event, bill and notification
// services. Every load applies the deadline rule first, so no caller ever
// sees a POLLING event whose deadline has passed.
type eventAccess struct {
	deps
	store  storage.Store
	engine *planner.Engine
}

func newEventAccess(store storage.Store, opts []Option) eventAccess {
	d := newDeps(opts)
	return eventAccess{deps: d, store: store, engine: planner.NewEngine(d.loc)}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// load fetches the event and finalizes it if its deadline has passed.
func (a *eventAccess) load(ctx context.Context, code string) (*models.Event, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: event code is required", planner.ErrValidation)
	}
	ev, err := a.store.GetEvent(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", planner.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to load event %s: %w", code, err)
	}

	if planner.MaybeFinalize(ev, a.clock(), a.loc) {
		if err := a.store.SaveEvent(ctx, ev); err != nil {
			return nil, fmt.Errorf("failed to save finalized event %s: %w", code, err)
		}
		a.logger.Info("Event finalized at deadline", "code", ev.Code, "deadline", ev.Deadline)
		a.finalized(ctx, ev, metrics.TriggerDeadline)
	}
	return ev, nil
}

// loadAsMember loads the event and checks that userID joined it.
func (a *eventAccess) loadAsMember(ctx context.Context, code, userID string) (*models.Event, models.Member, error) {
	ev, err := a.load(ctx, code)
	if err != nil {
		return nil, models.Member{}, err
	}
	m, err := planner.RequireMember(ev, userID)
	if err != nil {
		return nil, models.Member{}, err
	}
	return ev, m, nil
}

func (a *eventAccess) save(ctx context.Context, ev *models.Event) error {
	if err := a.store.SaveEvent(ctx, ev); err != nil {
		return fmt.Errorf("failed to save event %s: %w", ev.Code, err)
	}
	return nil
}

// finalized records the transition and tells the announcer. Announcement
// failures are logged only; the event is already saved.
func (a *eventAccess) finalized(ctx context.Context, ev *models.Event, trigger string) {
	a.metrics.Finalized(trigger)
	if a.announcer == nil {
		return
	}
	if err := a.announcer.Finalized(context.WithoutCancel(ctx), ev); err != nil {
		a.logger.Warn("Finalization announcement failed", "code", ev.Code, "error", err)
	}
}

// summaries lists the user's events. Listed events whose deadline passed
// are loaded once so the listing shows their final state.
func (a *eventAccess) summaries(ctx context.Context, userID string) ([]models.EventSummary, error) {
	list, err := a.store.ListEventsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	now := a.clock()
	for i, s := range list {
		if s.Status != models.StatusPolling {
			continue
		}
		if end, ok := planner.DeadlineEnd(s.Deadline, a.loc); !ok || !now.After(end) {
			continue
		}
		ev, err := a.load(ctx, s.Code)
		if err != nil {
			return nil, err
		}
		list[i] = ev.Summary()
	}
	return list, nil
}

func (a *eventAccess) pollingOpen(ev *models.Event) bool {
	return planner.PollingOpen(ev, a.clock(), a.loc)
}
