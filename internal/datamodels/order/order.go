package order

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PaymentMethod 支付方式（封闭枚举）
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
	PaymentRazorpay       PaymentMethod = "Razorpay"
)

// Valid 判断是否在允许的支付方式白名单内
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentRazorpay:
		return true
	}
	return false
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

// Status 订单状态
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// CanTransitionTo 订单状态机：Pending→Processing→Shipped→Delivered，
// 终态 Delivered/Cancelled 之前任意状态均可取消。
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered || next == StatusCancelled
	}
	return false
}

// Order 订单模型。下单成功后除状态流转外不可变。
type Order struct {
	ID              int64         `gorm:"primaryKey" json:"id"`
	UniqueOrderID   string        `gorm:"uniqueIndex;size:32;not null" json:"unique_order_id"`
	UserID          int64         `gorm:"index;not null" json:"user_id"`
	CartID          *int64        `gorm:"index" json:"cart_id"` // 立即购买时为 null
	AddressID       int64         `gorm:"index;not null" json:"address_id"`
	AppliedCouponID *int64        `gorm:"index" json:"applied_coupon_id"`
	TotalAmount     int64         `gorm:"not null" json:"total_amount"` // 分，已含折扣与运费
	ShippingCost    int64         `json:"shipping_cost"`                // 分
	PaymentMethod   PaymentMethod `gorm:"size:32;index;not null" json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"size:16;index;not null" json:"payment_status"`
	OrderStatus     Status        `gorm:"size:16;index;not null;default:Pending" json:"order_status"`
	OrderDate       time.Time     `json:"order_date"`
	ShippingDate    *time.Time    `json:"shipping_date"`
	DeliveryDate    *time.Time    `json:"delivery_date"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// OrderItem 订单行。商品名称/单价/图片为下单时快照，
// 后续商品被修改或删除不影响历史订单。
type OrderItem struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	OrderID         int64     `gorm:"index;not null" json:"order_id"`
	ProductID       int64     `gorm:"index;not null" json:"product_id"`
	Quantity        int64     `gorm:"not null" json:"quantity"`
	Price           int64     `gorm:"not null" json:"price"` // 分，下单时快照
	TotalPrice      int64     `gorm:"not null" json:"total_price"`
	ProductName     string    `gorm:"size:128;not null" json:"product_name"`
	ProductImageURL string    `gorm:"size:255" json:"product_image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository 订单仓储接口
type Repository interface {
	// CreateInTx 在事务内写入订单头，必须与库存扣减同事务提交。
	// 订单号撞唯一索引时返回 gorm.ErrDuplicatedKey，由调用方重试。
	CreateInTx(tx *gorm.DB, o *Order) error
	// CreateItemsInTx 在同一事务内写入订单行
	CreateItemsInTx(tx *gorm.DB, items []*OrderItem) error
	GetOwned(ctx context.Context, userID, orderID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, status Status) ([]*Order, error)
	ListItems(ctx context.Context, orderID int64) ([]*OrderItem, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	Count(ctx context.Context) (int64, error)
}
