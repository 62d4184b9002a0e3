package dbmysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cleanuptracker/internal/common"
)

// RecordEvent inserts the event and assigns its id. The existence check and
// the insert share a transaction; a concurrent insert that trips the unique
// index is reported the same way.
func (r *Repository) RecordEvent(ctx context.Context, ev *Event) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Event{}).
			Where("event_name = ? AND event_date = ? AND event_time = ?", ev.EventName, ev.EventDate, ev.EventTime).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return common.ErrDuplicate
		}
		return tx.Create(ev).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrDuplicate), errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("event %q on %s %s: %w", ev.EventName, ev.EventDate, ev.EventTime, common.ErrDuplicate)
	default:
		return storeErr("failed to record event", err)
	}
}

// ListEvents returns all events, soonest first.
func (r *Repository) ListEvents(ctx context.Context) ([]Event, error) {
	events := []Event{}

	err := r.db.WithContext(ctx).
		Order("event_date ASC").
		Order("event_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, storeErr("failed to list events", err)
	}
	return events, nil
}

func (r *Repository) EventByID(ctx context.Context, id uint64) (*Event, error) {
	var ev Event

	if err := r.db.WithContext(ctx).Where("event_id = ?", id).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %d: %w", id, common.ErrNotFound)
		}
		return nil, storeErr("failed to get event", err)
	}
	return &ev, nil
}

// JoinEvent records the user's participation. The event must exist and a
// user joins a given event at most once.
func (r *Repository) JoinEvent(ctx context.Context, eventID uint64, userID string) (*Event, error) {
	var ev Event

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).First(&ev).Error; err != nil {
			return err
		}

		var count int64
		err := tx.Model(&EventParticipant{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return common.ErrAlreadyJoined
		}
		return tx.Create(&EventParticipant{EventID: eventID, UserID: userID}).Error
	})

	switch {
	case err == nil:
		return &ev, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("event %d: %w", eventID, common.ErrNotFound)
	case errors.Is(err, common.ErrAlreadyJoined), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, fmt.Errorf("user %s, event %d: %w", userID, eventID, common.ErrAlreadyJoined)
	default:
		return nil, storeErr("failed to join event", err)
	}
}
