package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/cart"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/product"
)

// CartService 购物车维护。库存只在加购时做软校验（封顶到当前可售量），
// 下单时在锁内重新校验。
type CartService struct {
	cartRepo    cart.Repository
	productRepo product.Repository
}

func NewCartService(cartRepo cart.Repository, productRepo product.Repository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// AddItem 加入购物车，单价快照取当前生效价（折扣价优先）
func (s *CartService) AddItem(ctx context.Context, userID, productID, quantity int64, color, size string) (*cart.CartItem, error) {
	if quantity <= 0 {
		return nil, invalidInputErr("数量必须大于 0")
	}
	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("商品不存在")
		}
		return nil, err
	}
	if p.Status != 1 {
		return nil, invalidInputErr("商品已下架")
	}
	if quantity > p.AvailableStock {
		quantity = p.AvailableStock
	}
	if quantity == 0 {
		return nil, invalidInputErr("商品暂时无货")
	}

	c, err := s.cartRepo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	item := &cart.CartItem{
		CartID:        c.ID,
		ProductID:     productID,
		Quantity:      quantity,
		Price:         p.EffectivePrice(),
		SelectedColor: color,
		SelectedSize:  size,
	}
	if err := s.cartRepo.UpsertItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// CartSummary 购物车概览
type CartSummary struct {
	Cart       *cart.Cart       `json:"cart"`
	Items      []*cart.CartItem `json:"items"`
	TotalItems int64            `json:"total_items"`
	TotalPrice int64            `json:"total_price"` // 分
}

// GetSummary 查询购物车及汇总
func (s *CartService) GetSummary(ctx context.Context, userID int64) (*CartSummary, error) {
	c, err := s.cartRepo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	summary := &CartSummary{Cart: c, Items: items}
	for _, it := range items {
		summary.TotalItems += it.Quantity
		summary.TotalPrice += it.TotalPrice
	}
	return summary, nil
}

// UpdateQuantity 修改条目数量
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID, quantity int64) error {
	if quantity <= 0 {
		return invalidInputErr("数量必须大于 0")
	}
	c, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("购物车不存在")
		}
		return err
	}
	if err := s.cartRepo.UpdateItemQuantity(ctx, c.ID, itemID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("购物车条目不存在")
		}
		return err
	}
	return nil
}

// RemoveItem 删除条目
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	c, err := s.cartRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("购物车不存在")
		}
		return err
	}
	return s.cartRepo.RemoveItem(ctx, c.ID, itemID)
}
