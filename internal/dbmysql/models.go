package dbmysql

import (
	"time"

	"cleanuptracker/internal/common"
)

// Notification is one durable message for one recipient. Everything except
// the read state is immutable once written.
type Notification struct {
	ID        uint64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string                  `gorm:"not null;size:36;index:idx_notifications_user_created,priority:1" json:"user_id"`
	EventID   *uint64                 `gorm:"index" json:"event_id"`
	Kind      common.NotificationKind `gorm:"not null;size:20" json:"kind"`
	Message   string                  `gorm:"not null;type:text" json:"message"`
	IsRead    bool                    `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time              `json:"read_at"`
	CreatedAt time.Time               `gorm:"precision:6;index:idx_notifications_user_created,priority:2" json:"created_at"`
}

type Event struct {
	EventID     uint64    `gorm:"column:event_id;primaryKey;autoIncrement" json:"event_id"`
	EventName   string    `gorm:"column:event_name;not null;size:255;uniqueIndex:idx_events_name_date_time,priority:1" json:"event_name"`
	Description string    `gorm:"type:text" json:"description"`
	EventDate   string    `gorm:"column:event_date;not null;size:10;uniqueIndex:idx_events_name_date_time,priority:2" json:"event_date"`
	EventTime   string    `gorm:"column:event_time;not null;size:8;uniqueIndex:idx_events_name_date_time,priority:3" json:"event_time"`
	Location    string    `gorm:"not null;size:255" json:"location"`
	AddDetails  string    `gorm:"column:add_details;type:text" json:"add_details"`
	CreatedBy   string    `gorm:"column:created_by;size:36" json:"created_by"`
	CreatedAt   time.Time `gorm:"precision:6" json:"created_at"`
}

type EventParticipant struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID  uint64    `gorm:"not null;uniqueIndex:idx_participant_event_user,priority:1" json:"event_id"`
	UserID   string    `gorm:"not null;size:36;uniqueIndex:idx_participant_event_user,priority:2" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// Models lists every table AutoMigrate manages.
func Models() []any {
	return []any{&User{}, &Event{}, &Notification{}, &EventParticipant{}}
}
