package address

import (
	"context"
	"time"
)

// Address 收货地址
type Address struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	RecipientName string    `gorm:"size:64;not null" json:"recipient_name"`
	Street        string    `gorm:"size:255;not null" json:"street"`
	City          string    `gorm:"size:64;not null" json:"city"`
	State         string    `gorm:"size:64;not null" json:"state"`
	PostalCode    string    `gorm:"size:16;not null" json:"postal_code"`
	Country       string    `gorm:"size:64;not null" json:"country"`
	PhoneNumber   string    `gorm:"size:32;not null" json:"phone_number"`
	IsDefault     bool      `gorm:"index" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repository 地址仓储接口
type Repository interface {
	// GetOwned 只返回属于该用户的地址，避免跨用户下单
	GetOwned(ctx context.Context, userID, addressID int64) (*Address, error)
	ListByUser(ctx context.Context, userID int64) ([]*Address, error)
	Create(ctx context.Context, a *Address) error
}
