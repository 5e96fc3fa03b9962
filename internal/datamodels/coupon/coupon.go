package coupon

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DiscountKind 折扣类型
type DiscountKind int

const (
	DiscountNone DiscountKind = iota
	DiscountPercentage
	DiscountFlat
)

// Discount 折扣的带标签变体：百分比或固定金额，二者取其一。
// 数据库里两列都存在时以百分比为准（与历史数据兼容）。
type Discount struct {
	Kind       DiscountKind
	Percentage float64 // Kind == DiscountPercentage 时有效
	Amount     int64   // 分，Kind == DiscountFlat 时有效
}

// Apply 计算 subtotal（分）上的折扣金额，封顶不超过 subtotal
func (d Discount) Apply(subtotal int64) int64 {
	var v int64
	switch d.Kind {
	case DiscountPercentage:
		v = int64(d.Percentage * float64(subtotal) / 100)
	case DiscountFlat:
		v = d.Amount
	default:
		return 0
	}
	if v > subtotal {
		v = subtotal
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Coupon 优惠券模型
type Coupon struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	Code               string    `gorm:"uniqueIndex;size:32;not null" json:"code"`
	DiscountPercentage float64   `json:"discount_percentage"`
	DiscountAmount     int64     `json:"discount_amount"` // 分
	ValidFrom          time.Time `gorm:"index;not null" json:"valid_from"`
	ValidTill          time.Time `gorm:"index;not null" json:"valid_till"`
	UsageCount         int64     `gorm:"not null;default:0" json:"usage_count"`
	MaxUsageLimit      int64     `json:"max_usage_limit"` // 0 表示不限
	IsActive           bool      `gorm:"index;not null;default:true" json:"is_active"`
	AutoAssignOnSignup bool      `gorm:"index;not null;default:false" json:"auto_assign_on_signup"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Discount 把两个可空列归一成带标签变体
func (c *Coupon) Discount() Discount {
	if c.DiscountPercentage > 0 {
		return Discount{Kind: DiscountPercentage, Percentage: c.DiscountPercentage}
	}
	if c.DiscountAmount > 0 {
		return Discount{Kind: DiscountFlat, Amount: c.DiscountAmount}
	}
	return Discount{Kind: DiscountNone}
}

// RedeemableAt 兑换时重新校验：启用、在有效期内、未达使用上限。
// 过期或用尽的券在下单时跳过而不消耗。
func (c *Coupon) RedeemableAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTill) {
		return false
	}
	if c.MaxUsageLimit > 0 && c.UsageCount >= c.MaxUsageLimit {
		return false
	}
	return true
}

// UserCoupon 用户与优惠券的关联。
// 不变式：同一用户最多有一行 applied=true 且 used=false。
type UserCoupon struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"index:idx_user_coupon,unique;not null" json:"user_id"`
	CouponID   int64     `gorm:"index:idx_user_coupon,unique;not null" json:"coupon_id"`
	Used       bool      `gorm:"index;not null;default:false" json:"used"`
	Applied    bool      `gorm:"index;not null;default:false" json:"applied"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Repository 优惠券仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	ListAll(ctx context.Context) ([]*Coupon, error)
	ListAutoAssign(ctx context.Context) ([]*Coupon, error)

	AssignToUser(ctx context.Context, userID, couponID int64) error
	ListUserCoupons(ctx context.Context, userID int64) ([]*UserCoupon, error)
	// ApplyForUser 将指定券标记为 applied，并清除该用户其他行的 applied 标记
	ApplyForUser(ctx context.Context, userID, couponID int64) error
	UnapplyForUser(ctx context.Context, userID int64) error

	// FindAppliedInTx 在事务内查找用户当前 applied 且未使用的关联行及其券
	FindAppliedInTx(tx *gorm.DB, userID int64) (*UserCoupon, *Coupon, error)
	// ConsumeInTx 在同一事务内翻转 used/applied 并累加券的使用次数
	ConsumeInTx(tx *gorm.DB, uc *UserCoupon, c *Coupon) error
}
