package service

import (
	"context"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/order"
)

// PaymentConfirmer 非货到付款方式的支付确认前置条件。
// 下单核心不内联任何支付逻辑：未确认的支付直接导致整个事务回滚。
type PaymentConfirmer interface {
	Confirm(ctx context.Context, userID, amount int64, method order.PaymentMethod) (bool, error)
}

// razorpayConfirmer 网关对接由独立服务完成，这里默认放行。
// TODO: 接入 Razorpay 服务端 webhook 校验后改为真实确认。
type razorpayConfirmer struct{}

// NewRazorpayConfirmer 创建 Razorpay 确认器
func NewRazorpayConfirmer() PaymentConfirmer {
	return razorpayConfirmer{}
}

func (razorpayConfirmer) Confirm(ctx context.Context, userID, amount int64, method order.PaymentMethod) (bool, error) {
	return true, nil
}
