package notif

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/config"
	"cleanuptracker/internal/dbmysql"
)

// SyncPayload is what a client receives on (re)connect and from the pull
// endpoint: its full history plus the latest event notification, if any.
type SyncPayload struct {
	Notifications []dbmysql.Notification `json:"notifications"`
	NewEvent      *dbmysql.Notification  `json:"newEvent"`
}

// Coordinator ties live channels to the durable store.
type Coordinator struct {
	store       Store
	registry    *Registry
	syncTimeout time.Duration
	log         *zap.SugaredLogger
}

const defaultSyncTimeout = 10 * time.Second

func NewCoordinator(cfg *config.Config, store Store, registry *Registry, log *zap.SugaredLogger) *Coordinator {
	syncTimeout := cfg.Notification.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = defaultSyncTimeout
	}
	return &Coordinator{
		store:       store,
		registry:    registry,
		syncTimeout: syncTimeout,
		log:         log.Named("coordinator"),
	}
}

// LatestEventNotification returns the first event notification of a
// newest-first list, or nil.
func LatestEventNotification(list []dbmysql.Notification) *dbmysql.Notification {
	for i := range list {
		if list[i].Kind == common.KindEvent {
			n := list[i]
			return &n
		}
	}
	return nil
}

// Sync reads the user's history, giving up after the sync timeout.
func (c *Coordinator) Sync(ctx context.Context, userID string) (SyncPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.syncTimeout)
	defer cancel()

	list, err := c.store.ListForUser(ctx, userID)
	if err != nil {
		return SyncPayload{Notifications: []dbmysql.Notification{}}, err
	}
	return SyncPayload{
		Notifications: list,
		NewEvent:      LatestEventNotification(list),
	}, nil
}

// OnConnect registers ch for userID and sends it the reconciliation payload.
// If the store cannot be read the client still gets an empty payload and the
// store error is returned.
func (c *Coordinator) OnConnect(ctx context.Context, userID string, ch Channel) error {
	c.registry.Register(userID, ch)

	payload, err := c.Sync(ctx, userID)
	if err != nil {
		c.log.Errorw("sync failed", "user", userID, "error", err)
	}

	msg := common.Envelope{Type: common.MessageUnreadNotifications, Data: payload}
	if sendErr := sendSafely(ch, msg); sendErr != nil {
		c.log.Warnw("sync not delivered", "user", userID, "channel", ch.ID(), "error", sendErr)
	}
	return err
}

func (c *Coordinator) OnDisconnect(ch Channel) {
	if c.registry.Unregister(ch) {
		c.log.Debugw("channel unregistered", "channel", ch.ID())
	}
}

// Announce broadcasts the new-event hint. It never touches read state.
func (c *Coordinator) Announce(a common.EventAnnouncement) int {
	sent := c.registry.BroadcastAll(common.Envelope{Type: common.MessageNewEvent, Data: a})
	c.log.Infow("event announced", "event", a.EventID, "channels", sent)
	return sent
}

// Deliver pushes a single notification to the user's live channel, if any.
// The notification is already durable, so a missed push is only logged.
func (c *Coordinator) Deliver(userID string, n dbmysql.Notification) bool {
	ch, ok := c.registry.Lookup(userID)
	if !ok {
		return false
	}
	if err := sendSafely(ch, common.Envelope{Type: common.MessageNotification, Data: n}); err != nil {
		c.log.Warnw("push failed", "user", userID, "channel", ch.ID(), "error", err)
		return false
	}
	return true
}
