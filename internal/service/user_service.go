package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/auth"
	"github.com/Miorish-Tech-Team/Backend/internal/config"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/user"
)

type UserService struct {
	repo    user.Repository
	coupons *CouponService
	jwt     *config.JWTConfig
}

func NewUserService(repo user.Repository, coupons *CouponService, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, coupons: coupons, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

// Register 注册并自动发放新人优惠券
func (s *UserService) Register(ctx context.Context, email, firstName, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, invalidInputErr("邮箱和密码不能为空")
	}
	u := &user.User{
		Email:     email,
		FirstName: firstName,
		Salt:      "miorish", // 简化实现，真实业务请使用随机盐
	}
	u.Password = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidInputErr("邮箱已注册")
		}
		return nil, err
	}
	// 新人券发放失败不阻断注册
	s.coupons.AssignSignupCoupons(ctx, u.ID)
	return u, nil
}

// Login 登录并返回 JWT
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", errors.New("邮箱或密码错误")
	}
	if hashPassword(password, u.Salt) != u.Password {
		return "", errors.New("邮箱或密码错误")
	}
	return auth.GenerateToken(s.jwt, u.ID, u.Email, u.FirstName)
}
