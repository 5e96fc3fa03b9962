package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/coupon"
)

// CouponService 优惠券分配、应用与兑换
type CouponService struct {
	repo coupon.Repository
}

// NewCouponService 创建优惠券服务
func NewCouponService(repo coupon.Repository) *CouponService {
	return &CouponService{repo: repo}
}

// CouponRedemption 兑换结果，供下单事务计价和事后通知使用
type CouponRedemption struct {
	CouponID int64
	Code     string
	Discount int64 // 分
}

// RedeemInTx 在下单事务内兑换用户当前应用的优惠券。
// 没有应用中的券时返回 (nil, nil)。
// 过期、停用或用尽的券跳过且不消耗，留给用户手动处理。
// 消耗动作（used/applied 翻转、使用次数累加）随外层事务一起提交或回滚。
func (s *CouponService) RedeemInTx(tx *gorm.DB, userID, subtotal int64, now time.Time) (*CouponRedemption, error) {
	uc, c, err := s.repo.FindAppliedInTx(tx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !c.RedeemableAt(now) {
		zap.L().Info("applied coupon no longer redeemable, skipping",
			zap.Int64("user_id", userID), zap.String("code", c.Code))
		return nil, nil
	}

	discount := c.Discount().Apply(subtotal)
	if err := s.repo.ConsumeInTx(tx, uc, c); err != nil {
		return nil, err
	}
	return &CouponRedemption{CouponID: c.ID, Code: c.Code, Discount: discount}, nil
}

// AssignSignupCoupons 注册时分配所有启用的自动发放券，失败只记日志
func (s *CouponService) AssignSignupCoupons(ctx context.Context, userID int64) {
	list, err := s.repo.ListAutoAssign(ctx)
	if err != nil {
		zap.L().Warn("list signup coupons failed", zap.Error(err))
		return
	}
	now := time.Now()
	for _, c := range list {
		if now.Before(c.ValidFrom) || now.After(c.ValidTill) {
			continue
		}
		if err := s.repo.AssignToUser(ctx, userID, c.ID); err != nil {
			zap.L().Warn("assign signup coupon failed",
				zap.Int64("user_id", userID), zap.Int64("coupon_id", c.ID), zap.Error(err))
		}
	}
}

// ListUserCoupons 查询用户的券
func (s *CouponService) ListUserCoupons(ctx context.Context, userID int64) ([]*coupon.UserCoupon, error) {
	return s.repo.ListUserCoupons(ctx, userID)
}

// Apply 将某张券标记为下次下单使用
func (s *CouponService) Apply(ctx context.Context, userID, couponID int64) error {
	c, err := s.repo.GetByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("优惠券不存在")
		}
		return err
	}
	if !c.RedeemableAt(time.Now()) {
		return invalidInputErr("优惠券已过期或不可用")
	}
	if err := s.repo.ApplyForUser(ctx, userID, couponID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("没有可应用的券，可能未领取或已使用")
		}
		return err
	}
	return nil
}

// Unapply 取消当前应用的券
func (s *CouponService) Unapply(ctx context.Context, userID int64) error {
	return s.repo.UnapplyForUser(ctx, userID)
}

// CreateCoupon 后台创建优惠券
func (s *CouponService) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	if c.Code == "" {
		return invalidInputErr("券码不能为空")
	}
	if c.DiscountPercentage <= 0 && c.DiscountAmount <= 0 {
		return invalidInputErr("必须设置百分比或固定金额折扣")
	}
	if !c.ValidTill.After(c.ValidFrom) {
		return invalidInputErr("有效期设置不合法")
	}
	return s.repo.Create(ctx, c)
}

// ListCoupons 后台查询全部券
func (s *CouponService) ListCoupons(ctx context.Context) ([]*coupon.Coupon, error) {
	return s.repo.ListAll(ctx)
}
