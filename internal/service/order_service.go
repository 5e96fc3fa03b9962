package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/order"
)

// OrderService 订单查询与状态流转（下单本身见 CheckoutService）
type OrderService struct {
	repo order.Repository
}

// NewOrderService 创建订单服务
func NewOrderService(repo order.Repository) *OrderService {
	return &OrderService{repo: repo}
}

// OrderDetail 订单及其行
type OrderDetail struct {
	Order *order.Order       `json:"order"`
	Items []*order.OrderItem `json:"items"`
}

// ListByUser 查询用户订单，可按状态过滤
func (s *OrderService) ListByUser(ctx context.Context, userID int64, status string) ([]*order.Order, error) {
	return s.repo.ListByUser(ctx, userID, order.Status(status))
}

// GetOwnedDetail 查询用户自己的订单详情
func (s *OrderService) GetOwnedDetail(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	o, err := s.repo.GetOwned(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("订单不存在")
		}
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: o, Items: items}, nil
}

// TransitionStatus 后台流转订单状态，非法流转直接拒绝
func (s *OrderService) TransitionStatus(ctx context.Context, orderID int64, next order.Status) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("订单不存在")
		}
		return err
	}
	if !o.OrderStatus.CanTransitionTo(next) {
		return invalidInputErr(fmt.Sprintf("订单状态不能从 %s 变为 %s", o.OrderStatus, next))
	}
	return s.repo.UpdateStatus(ctx, orderID, next)
}
