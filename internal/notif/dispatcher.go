package notif

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/config"
	"cleanuptracker/internal/dbmysql"
)

// SubmitResult describes an accepted event. Degraded is set when some
// recipients could not be given a durable notification.
type SubmitResult struct {
	EventID  uint64
	Notified int
	Degraded *common.DeliveryDegradedError
}

// Dispatcher turns a submitted event into durable notifications for every
// known user followed by one live announcement.
type Dispatcher struct {
	store         Store
	announcer     Announcer
	maxRetries    int
	retryDelay    time.Duration
	fanOutTimeout time.Duration
	log           *zap.SugaredLogger
}

const defaultFanOutTimeout = 30 * time.Second

func NewDispatcher(cfg *config.Config, store Store, announcer Announcer, log *zap.SugaredLogger) *Dispatcher {
	maxRetries := cfg.Notification.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	fanOutTimeout := cfg.Notification.FanOutTimeout
	if fanOutTimeout <= 0 {
		fanOutTimeout = defaultFanOutTimeout
	}
	return &Dispatcher{
		store:         store,
		announcer:     announcer,
		maxRetries:    maxRetries,
		retryDelay:    cfg.Notification.RetryDelay,
		fanOutTimeout: fanOutTimeout,
		log:           log.Named("dispatcher"),
	}
}

// SubmitEvent validates and records the event, writes one notification per
// recipient, then announces it. Validation and duplicate errors leave no
// trace. Once the event is recorded the call succeeds; fan-out trouble is
// reported through SubmitResult.Degraded. Fan-out is detached from ctx's
// cancellation and bounded by the fan-out timeout instead.
func (d *Dispatcher) SubmitEvent(ctx context.Context, draft common.EventDraft) (SubmitResult, error) {
	draft, err := common.ValidateEventDraft(draft)
	if err != nil {
		return SubmitResult{}, err
	}

	ev := &dbmysql.Event{
		EventName:   draft.Name,
		Description: draft.Description,
		EventDate:   draft.Date,
		EventTime:   draft.Time,
		Location:    draft.Location,
		AddDetails:  draft.Details,
		CreatedBy:   draft.CreatedBy,
	}
	if err := d.store.RecordEvent(ctx, ev); err != nil {
		return SubmitResult{}, err
	}

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.fanOutTimeout)
	defer cancel()

	notified, degraded := d.fanOut(fctx, ev)
	if degraded != nil {
		d.log.Warnw("event recorded with degraded delivery", "event", ev.EventID, "error", degraded)
	}

	d.announcer.Announce(common.EventAnnouncement{
		EventID:     ev.EventID,
		EventName:   ev.EventName,
		Description: ev.Description,
		Date:        ev.EventDate,
		Time:        ev.EventTime,
		Location:    ev.Location,
	})

	return SubmitResult{EventID: ev.EventID, Notified: notified, Degraded: degraded}, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, ev *dbmysql.Event) (int, *common.DeliveryDegradedError) {
	recipients, err := d.recipients(ctx, ev.EventID)
	if err != nil {
		return 0, &common.DeliveryDegradedError{EventID: ev.EventID, Cause: err}
	}

	message := common.EventMessage(ev.EventName)
	failed, err := d.write(ctx, ev.EventID, message, recipients)

	for attempt := 1; len(failed) > 0 && attempt <= d.maxRetries; attempt++ {
		d.log.Warnw("retrying fan-out", "event", ev.EventID, "attempt", attempt, "failed", len(failed), "error", err)
		if !sleep(ctx, d.retryDelay) {
			break
		}
		failed, err = d.write(ctx, ev.EventID, message, failed)
	}

	notified := len(recipients) - len(failed)
	if len(failed) > 0 {
		return notified, &common.DeliveryDegradedError{EventID: ev.EventID, Failed: failed, Cause: err}
	}
	return notified, nil
}

// recipients snapshots the user set, retrying a failed read like a failed write.
func (d *Dispatcher) recipients(ctx context.Context, eventID uint64) ([]string, error) {
	ids, err := d.store.UserIDs(ctx)
	for attempt := 1; err != nil && attempt <= d.maxRetries; attempt++ {
		d.log.Warnw("retrying recipient read", "event", eventID, "attempt", attempt, "error", err)
		if !sleep(ctx, d.retryDelay) {
			break
		}
		ids, err = d.store.UserIDs(ctx)
	}
	return ids, err
}

func (d *Dispatcher) write(ctx context.Context, eventID uint64, message string, recipients []string) ([]string, error) {
	failed, err := d.store.FanOutNotifications(ctx, eventID, message, recipients)
	if err != nil && len(failed) == 0 {
		failed = recipients
	}
	return failed, err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
