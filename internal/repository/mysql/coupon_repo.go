package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/coupon"
)

type couponRepo struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) coupon.Repository {
	return &couponRepo{db: db}
}

func (r *couponRepo) GetByID(ctx context.Context, id int64) (*coupon.Coupon, error) {
	var c coupon.Coupon
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepo) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var c coupon.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *couponRepo) Create(ctx context.Context, c *coupon.Coupon) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *couponRepo) ListAll(ctx context.Context) ([]*coupon.Coupon, error) {
	var list []*coupon.Coupon
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *couponRepo) ListAutoAssign(ctx context.Context) ([]*coupon.Coupon, error) {
	var list []*coupon.Coupon
	if err := r.db.WithContext(ctx).
		Where("auto_assign_on_signup = ? AND is_active = ?", true, true).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// AssignToUser 幂等分配：同一 (user, coupon) 已存在时不重复插入
func (r *couponRepo) AssignToUser(ctx context.Context, userID, couponID int64) error {
	uc := coupon.UserCoupon{UserID: userID, CouponID: couponID, AssignedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "coupon_id"}},
		DoNothing: true,
	}).Create(&uc).Error
}

func (r *couponRepo) ListUserCoupons(ctx context.Context, userID int64) ([]*coupon.UserCoupon, error) {
	var list []*coupon.UserCoupon
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("assigned_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ApplyForUser 先清掉该用户其他 applied 行，再标记目标行，
// 维持「每个用户最多一张已应用未使用的券」的不变式。
func (r *couponRepo) ApplyForUser(ctx context.Context, userID, couponID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&coupon.UserCoupon{}).
			Where("user_id = ? AND applied = ?", userID, true).
			Update("applied", false).Error; err != nil {
			return err
		}
		res := tx.Model(&coupon.UserCoupon{}).
			Where("user_id = ? AND coupon_id = ? AND used = ?", userID, couponID, false).
			Update("applied", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *couponRepo) UnapplyForUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&coupon.UserCoupon{}).
		Where("user_id = ? AND applied = ?", userID, true).
		Update("applied", false).Error
}

// FindAppliedInTx 事务内带锁读取用户当前应用的券，
// 与商品行锁同事务，保证兑换与下单原子。
func (r *couponRepo) FindAppliedInTx(tx *gorm.DB, userID int64) (*coupon.UserCoupon, *coupon.Coupon, error) {
	var uc coupon.UserCoupon
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND used = ? AND applied = ?", userID, false, true).
		First(&uc).Error; err != nil {
		return nil, nil, err
	}
	var c coupon.Coupon
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, uc.CouponID).Error; err != nil {
		return nil, nil, err
	}
	return &uc, &c, nil
}

// ConsumeInTx 翻转 used/applied 并累加全局使用次数，随外层事务一起提交或回滚
func (r *couponRepo) ConsumeInTx(tx *gorm.DB, uc *coupon.UserCoupon, c *coupon.Coupon) error {
	uc.Used = true
	uc.Applied = false
	if err := tx.Save(uc).Error; err != nil {
		return err
	}
	c.UsageCount++
	return tx.Save(c).Error
}
