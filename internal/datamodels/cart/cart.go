package cart

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Status 购物车状态
type Status string

const (
	StatusActive    Status = "active"
	StatusOrdered   Status = "ordered"
	StatusCancelled Status = "cancelled"
)

// Cart 每个用户一个活跃购物车
type Cart struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Status    Status    `gorm:"size:16;index;not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem 购物车行。Price 为加入购物车时的快照单价，
// 下单按此价结算；库存则在下单时重新校验。
type CartItem struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	CartID        int64     `gorm:"index;not null" json:"cart_id"`
	ProductID     int64     `gorm:"index;not null" json:"product_id"`
	SelectedColor string    `gorm:"size:32" json:"selected_color"`
	SelectedSize  string    `gorm:"size:16" json:"selected_size"`
	Quantity      int64     `gorm:"not null;default:1" json:"quantity"`
	Price         int64     `gorm:"not null" json:"price"` // 分
	TotalPrice    int64     `gorm:"not null" json:"total_price"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repository 购物车仓储接口
type Repository interface {
	GetOrCreateByUser(ctx context.Context, userID int64) (*Cart, error)
	GetByUser(ctx context.Context, userID int64) (*Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]*CartItem, error)
	// GetItemsByIDs 只返回属于 cartID 且 id 在给定集合内的行
	GetItemsByIDs(ctx context.Context, cartID int64, itemIDs []int64) ([]*CartItem, error)
	UpsertItem(ctx context.Context, item *CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID, quantity int64) error
	RemoveItem(ctx context.Context, cartID, itemID int64) error
	RemoveItems(ctx context.Context, cartID int64, itemIDs []int64) error
	ClearItems(ctx context.Context, cartID int64) error
	// ListItemsInTx 事务内读取购物车行，与商品锁同事务
	ListItemsInTx(tx *gorm.DB, cartID int64) ([]*CartItem, error)
	GetItemsByIDsInTx(tx *gorm.DB, cartID int64, itemIDs []int64) ([]*CartItem, error)
}
