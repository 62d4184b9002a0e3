package notif

import (
	"context"

	"cleanuptracker/internal/common"
	"cleanuptracker/internal/dbmysql"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks cleanuptracker/internal/notif Store

// Store is the persistence the delivery pipeline depends on.
type Store interface {
	RecordEvent(ctx context.Context, ev *dbmysql.Event) error
	UserIDs(ctx context.Context) ([]string, error)
	FanOutNotifications(ctx context.Context, eventID uint64, message string, recipients []string) ([]string, error)
	ListForUser(ctx context.Context, userID string) ([]dbmysql.Notification, error)
	MarkRead(ctx context.Context, id uint64) (bool, error)
	CreateNotification(ctx context.Context, n *dbmysql.Notification) error
}

// Directory serves the read-mostly endpoints around events and counters.
type Directory interface {
	ListEvents(ctx context.Context) ([]dbmysql.Event, error)
	EventByID(ctx context.Context, id uint64) (*dbmysql.Event, error)
	JoinEvent(ctx context.Context, eventID uint64, userID string) (*dbmysql.Event, error)
	Counts(ctx context.Context) (common.DashboardCounts, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// Channel is one live client connection. Send must not block; a full or
// closed channel returns an error instead.
type Channel interface {
	ID() string
	Send(msg common.Envelope) error
}

// Announcer pushes a new-event hint to every connected client and reports
// how many channels accepted it.
type Announcer interface {
	Announce(a common.EventAnnouncement) int
}
