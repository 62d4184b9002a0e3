package dbmysql

import (
	"context"
	"time"
)

// User rows are owned by the user-admin layer; this service only reads the
// recipient set from them.
type User struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:36" json:"user_id"`
	Username  string    `gorm:"column:username;size:100" json:"username"`
	Status    string    `gorm:"column:status;size:20;default:'approved'" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return storeErr("failed to create user", err)
	}
	return nil
}

// UserIDs is the recipient set for event fan-out: every known user.
func (r *Repository) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string

	if err := r.db.WithContext(ctx).Model(&User{}).Order("user_id").Pluck("user_id", &ids).Error; err != nil {
		return nil, storeErr("failed to list users", err)
	}
	return ids, nil
}
