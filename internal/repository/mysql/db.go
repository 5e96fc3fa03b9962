package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/config"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/address"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/cart"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/coupon"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/notification"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/order"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/product"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移表结构。
// TranslateError 开启后，唯一键冲突会映射为 gorm.ErrDuplicatedKey，
// 订单号生成依赖这一点做冲突重试。
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = db.AutoMigrate(
			&user.User{},
			&product.Product{},
			&address.Address{},
			&cart.Cart{},
			&cart.CartItem{},
			&coupon.Coupon{},
			&coupon.UserCoupon{},
			&order.Order{},
			&order.OrderItem{},
			&notification.Notification{},
		); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}
