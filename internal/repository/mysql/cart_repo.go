package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/cart"
)

type cartRepo struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepo{db: db}
}

func (r *cartRepo) GetByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, cart.StatusActive).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateByUser 确保用户有一个活跃购物车
func (r *cartRepo) GetOrCreateByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	c, err := r.GetByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	nc := cart.Cart{UserID: userID, Status: cart.StatusActive}
	if err := r.db.WithContext(ctx).Create(&nc).Error; err != nil {
		return nil, err
	}
	return &nc, nil
}

func (r *cartRepo) ListItems(ctx context.Context, cartID int64) ([]*cart.CartItem, error) {
	var list []*cart.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) GetItemsByIDs(ctx context.Context, cartID int64, itemIDs []int64) ([]*cart.CartItem, error) {
	var list []*cart.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpsertItem 同商品同规格的行合并数量，否则新建行
func (r *cartRepo) UpsertItem(ctx context.Context, item *cart.CartItem) error {
	var existing cart.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND selected_color = ? AND selected_size = ?",
			item.CartID, item.ProductID, item.SelectedColor, item.SelectedSize).
		First(&existing).Error
	if err == nil {
		existing.Quantity += item.Quantity
		existing.TotalPrice = existing.Quantity * existing.Price
		return r.db.WithContext(ctx).Save(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	item.TotalPrice = item.Quantity * item.Price
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, cartID, itemID, quantity int64) error {
	var item cart.CartItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error; err != nil {
		return err
	}
	item.Quantity = quantity
	item.TotalPrice = quantity * item.Price
	return r.db.WithContext(ctx).Save(&item).Error
}

func (r *cartRepo) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&cart.CartItem{}).Error
}

func (r *cartRepo) RemoveItems(ctx context.Context, cartID int64, itemIDs []int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Delete(&cart.CartItem{}).Error
}

func (r *cartRepo) ClearItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&cart.CartItem{}).Error
}

func (r *cartRepo) ListItemsInTx(tx *gorm.DB, cartID int64) ([]*cart.CartItem, error) {
	var list []*cart.CartItem
	if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) GetItemsByIDsInTx(tx *gorm.DB, cartID int64, itemIDs []int64) ([]*cart.CartItem, error) {
	var list []*cart.CartItem
	if err := tx.Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
