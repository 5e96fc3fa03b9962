package notification

import (
	"context"
	"time"
)

// Notification 站内通知
type Notification struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"index;not null" json:"user_id"`
	Title      string    `gorm:"size:128;not null" json:"title"`
	Message    string    `gorm:"size:512;not null" json:"message"`
	Type       string    `gorm:"size:32;index" json:"type"` // order / coupon / system
	CoverImage string    `gorm:"size:255" json:"cover_image"`
	Read       bool      `gorm:"index;not null;default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository 通知仓储接口
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Notification, error)
}
