package dbmysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cleanuptracker/internal/common"
)

const fanOutBatchSize = 500

// Repository is the durable store for events, notifications and the
// recipient set. Every method is safe for concurrent use.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}

func (r *Repository) now() time.Time {
	return r.db.NowFunc()
}

func (r *Repository) CreateNotification(ctx context.Context, n *Notification) error {
	if n.Kind == "" {
		n.Kind = common.KindGeneral
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return storeErr("failed to create notification", err)
	}
	return nil
}

func eventNotification(eventID uint64, userID, message string, at time.Time) *Notification {
	id := eventID
	return &Notification{
		UserID:    userID,
		EventID:   &id,
		Kind:      common.KindEvent,
		Message:   message,
		CreatedAt: at,
	}
}

// FanOutNotifications writes one unread event notification per recipient,
// all stamped with the same server time. The whole set is attempted in one
// transaction first; if that fails each recipient is inserted on its own.
// The returned slice holds the recipients that still have no row, and the
// error is non-nil exactly when that slice is non-empty.
func (r *Repository) FanOutNotifications(
	ctx context.Context,
	eventID uint64,
	message string,
	recipients []string,
) ([]string, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	at := r.now()

	batch := make([]*Notification, 0, len(recipients))
	for _, userID := range recipients {
		batch = append(batch, eventNotification(eventID, userID, message, at))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(batch, fanOutBatchSize).Error
	})
	if err == nil {
		return nil, nil
	}
	if ctx.Err() != nil {
		return recipients, storeErr("failed to fan out notifications", ctx.Err())
	}

	var (
		failed  []string
		lastErr error
	)
	for _, userID := range recipients {
		n := eventNotification(eventID, userID, message, at)
		if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
			failed = append(failed, userID)
			lastErr = err
		}
	}
	if len(failed) == 0 {
		return nil, nil
	}
	return failed, storeErr(fmt.Sprintf("failed to notify %d recipient(s)", len(failed)), lastErr)
}

// ListForUser returns every notification of the user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	notifications := []Notification{}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, storeErr("failed to get user notifications", err)
	}

	return notifications, nil
}

// MarkRead flips a notification to read. It reports whether a row changed;
// an unknown or already-read id is not an error.
func (r *Repository) MarkRead(ctx context.Context, id uint64) (bool, error) {
	now := r.now()

	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	if result.Error != nil {
		return false, storeErr("failed to mark notification as read", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	now := r.now()

	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		})
	if result.Error != nil {
		return 0, storeErr("failed to mark notifications as read", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *Repository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storeErr("failed to get unread count", err)
	}

	return count, nil
}

// Counts backs the admin dashboard.
func (r *Repository) Counts(ctx context.Context) (common.DashboardCounts, error) {
	var c common.DashboardCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&User{}).Count(&c.UserCount).Error; err != nil {
		return c, storeErr("failed to count users", err)
	}
	if err := db.Model(&Event{}).Count(&c.EventCount).Error; err != nil {
		return c, storeErr("failed to count events", err)
	}
	if err := db.Model(&Notification{}).Count(&c.NotificationCount).Error; err != nil {
		return c, storeErr("failed to count notifications", err)
	}
	return c, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storeErr("sql.DB error", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeErr("ping failed", err)
	}
	return nil
}
