package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/product"
)

type ProductService struct {
	db   *gorm.DB
	repo product.Repository
}

func NewProductService(db *gorm.DB, repo product.Repository) *ProductService {
	return &ProductService{db: db, repo: repo}
}

func (s *ProductService) ListOnline(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListOnline(ctx)
}

// ListAll 后台列表，含下架商品
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("商品不存在")
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if p.Name == "" || p.Price <= 0 {
		return invalidInputErr("商品名称和价格不能为空")
	}
	return s.repo.Create(ctx, p)
}

// AdjustStock 后台补货/调整库存，目录侧修改也走下单同款行锁
func (s *ProductService) AdjustStock(ctx context.Context, productID, delta int64) (*product.Product, error) {
	var out *product.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.LockForUpdate(tx, []int64{productID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return notFoundErr("商品不存在")
		}
		p := locked[0]
		if p.AvailableStock+delta < 0 {
			return invalidInputErr("库存不能调整为负数")
		}
		p.AvailableStock += delta
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}
