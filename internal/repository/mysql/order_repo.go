package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// CreateInTx 订单头写入。唯一索引冲突由 TranslateError 映射为 gorm.ErrDuplicatedKey。
func (r *orderRepo) CreateInTx(tx *gorm.DB, o *order.Order) error {
	return tx.Create(o).Error
}

// CreateItemsInTx 订单行与订单头同事务写入
func (r *orderRepo) CreateItemsInTx(tx *gorm.DB, items []*order.OrderItem) error {
	return tx.Create(&items).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetOwned(ctx context.Context, userID, orderID int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64, status order.Status) ([]*order.Order, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("order_status = ?", status)
	}
	var list []*order.Order
	if err := query.Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListItems(ctx context.Context, orderID int64) ([]*order.OrderItem, error) {
	var list []*order.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID int64, status order.Status) error {
	return r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", orderID).
		Update("order_status", status).Error
}

func (r *orderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&n).Error
	return n, err
}
