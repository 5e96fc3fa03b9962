package server

import (
	"fmt"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/Miorish-Tech-Team/Backend/internal/config"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/coupon"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/order"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/product"
	"github.com/Miorish-Tech-Team/Backend/internal/metrics"
	"github.com/Miorish-Tech-Team/Backend/internal/middleware"
	"github.com/Miorish-Tech-Team/Backend/internal/repository/mysql"
	"github.com/Miorish-Tech-Team/Backend/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由。
// 端口通常是 8081，与前台 Web 服务分离，只在内网暴露。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)

	// 仓储与服务
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	userRepo := mysql.NewUserRepository(db)
	couponRepo := mysql.NewCouponRepository(db)

	productSvc := service.NewProductService(db, productRepo)
	orderSvc := service.NewOrderService(orderRepo)
	couponSvc := service.NewCouponService(couponRepo)

	app.Get("/metrics", iris.FromStd(metrics.Handler()))

	// 后台接口全部走共享令牌鉴权
	api := app.Party("/api", middleware.AdminAuth(cfg.Admin.Token))

	// ---------- 总览 ----------

	api.Get("/dashboard", func(ctx iris.Context) {
		reqCtx := ctx.Request().Context()
		users, err := userRepo.Count(reqCtx)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		orders, err := orderRepo.Count(reqCtx)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		products, err := productRepo.Count(reqCtx)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{
			"users":    users,
			"orders":   orders,
			"products": products,
		}})
	})

	// ---------- 商品管理 ----------

	// 商品列表（后台用：含下架商品）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 创建商品
	api.Post("/products", func(ctx iris.Context) {
		var req struct {
			SellerID       int64  `json:"seller_id"`
			Name           string `json:"name"`
			Description    string `json:"description"`
			Price          int64  `json:"price"`
			DiscountPrice  int64  `json:"discount_price"`
			AvailableStock int64  `json:"available_stock"`
			CoverImageURL  string `json:"cover_image_url"`
			Status         int    `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p := &product.Product{
			SellerID:       req.SellerID,
			Name:           req.Name,
			Description:    req.Description,
			Price:          req.Price,
			DiscountPrice:  req.DiscountPrice,
			AvailableStock: req.AvailableStock,
			CoverImageURL:  req.CoverImageURL,
			Status:         req.Status,
		}
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 调整库存（补货为正，回收为负），走与下单相同的行锁
	api.Post("/products/{id:uint64}/stock", func(ctx iris.Context) {
		pid, _ := ctx.Params().GetUint64("id")
		var req struct {
			Delta int64 `json:"delta"`
		}
		if err := ctx.ReadJSON(&req); err != nil || req.Delta == 0 {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "无效的库存调整量"})
			return
		}
		p, err := productSvc.AdjustStock(ctx.Request().Context(), int64(pid), req.Delta)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// ---------- 订单管理 ----------

	// 流转订单状态，非法流转返回 400
	api.Post("/orders/{id:uint64}/status", func(ctx iris.Context) {
		oid, _ := ctx.Params().GetUint64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := orderSvc.TransitionStatus(ctx.Request().Context(), int64(oid), order.Status(req.Status)); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// ---------- 优惠券管理 ----------

	api.Get("/coupons", func(ctx iris.Context) {
		list, err := couponSvc.ListCoupons(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	api.Post("/coupons", func(ctx iris.Context) {
		var req struct {
			Code               string  `json:"code"`
			DiscountPercentage float64 `json:"discount_percentage"`
			DiscountAmount     int64   `json:"discount_amount"`
			ValidFrom          string  `json:"valid_from"`
			ValidTill          string  `json:"valid_till"`
			MaxUsageLimit      int64   `json:"max_usage_limit"`
			AutoAssignOnSignup bool    `json:"auto_assign_on_signup"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		from, err := parseAdminTime(req.ValidFrom)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "invalid valid_from: " + err.Error()})
			return
		}
		till, err := parseAdminTime(req.ValidTill)
		if err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "invalid valid_till: " + err.Error()})
			return
		}
		c := &coupon.Coupon{
			Code:               req.Code,
			DiscountPercentage: req.DiscountPercentage,
			DiscountAmount:     req.DiscountAmount,
			ValidFrom:          from,
			ValidTill:          till,
			MaxUsageLimit:      req.MaxUsageLimit,
			IsActive:           true,
			AutoAssignOnSignup: req.AutoAssignOnSignup,
		}
		if err := couponSvc.CreateCoupon(ctx.Request().Context(), c); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": c})
	})
}

// 支持多种常见时间格式，精确到秒
func parseAdminTime(v string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time format: %s", v)
}
