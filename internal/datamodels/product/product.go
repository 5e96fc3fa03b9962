package product

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Product 商品模型。库存与销量只允许在下单事务内持有行锁后修改。
type Product struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	SellerID       int64     `gorm:"index" json:"seller_id"`
	Name           string    `gorm:"size:128;not null" json:"name"`
	Description    string    `gorm:"size:512" json:"description"`
	Price          int64     `gorm:"not null" json:"price"` // 分
	DiscountPrice  int64     `json:"discount_price"`        // 分，0 表示无折扣价
	AvailableStock int64     `gorm:"not null" json:"available_stock"`
	TotalSold      int64     `gorm:"not null" json:"total_sold"`
	CoverImageURL  string    `gorm:"size:255" json:"cover_image_url"`
	Status         int       `gorm:"index" json:"status"` // 0:下架 1:在售
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EffectivePrice 加购时的快照单价：有折扣价取折扣价，否则原价
func (p *Product) EffectivePrice() int64 {
	if p.DiscountPrice > 0 && p.DiscountPrice < p.Price {
		return p.DiscountPrice
	}
	return p.Price
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListOnline(ctx context.Context) ([]*Product, error)
	// ListAll 含下架商品，后台管理用
	ListAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Count(ctx context.Context) (int64, error)

	// LockForUpdate 在事务 tx 内按 id 升序批量加排他行锁并返回商品。
	// 所有下单路径都必须通过它取锁，保证全局一致的加锁顺序。
	LockForUpdate(tx *gorm.DB, ids []int64) ([]*Product, error)
}
