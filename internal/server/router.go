package server

import (
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/Miorish-Tech-Team/Backend/internal/auth"
	"github.com/Miorish-Tech-Team/Backend/internal/config"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/address"
	"github.com/Miorish-Tech-Team/Backend/internal/infra/mq"
	"github.com/Miorish-Tech-Team/Backend/internal/infra/redis"
	"github.com/Miorish-Tech-Team/Backend/internal/metrics"
	"github.com/Miorish-Tech-Team/Backend/internal/middleware"
	"github.com/Miorish-Tech-Team/Backend/internal/repository/mysql"
	"github.com/Miorish-Tech-Team/Backend/internal/service"
)

// failWith 按错误分类映射 HTTP 状态码，库存缺口附带明细
func failWith(ctx iris.Context, err error) {
	status := 500
	switch service.KindOf(err) {
	case service.KindNotFound:
		status = 404
	case service.KindInvalidInput, service.KindInsufficientStock:
		status = 400
	}
	payload := iris.Map{"code": status, "msg": err.Error()}
	if shortages := service.ShortagesOf(err); len(shortages) > 0 {
		payload["shortages"] = shortages
	}
	ctx.StopWithJSON(status, payload)
}

// authUser 从中间件注入的值还原请求方身份
func authUser(ctx iris.Context) service.AuthUser {
	return service.AuthUser{
		ID:        ctx.Values().GetInt64Default("user_id", 0),
		Email:     ctx.Values().GetStringDefault("email", ""),
		FirstName: ctx.Values().GetStringDefault("first_name", ""),
	}
}

// writeCheckout 输出下单结果：重放请求原样返回首次响应
func writeCheckout(ctx iris.Context, res *service.CheckoutResult) {
	ctx.StatusCode(res.Status)
	ctx.ContentType("application/json")
	_, _ = ctx.Write(res.Body)
}

// RegisterRoutes 注册所有 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	cartRepo := mysql.NewCartRepository(db)
	couponRepo := mysql.NewCouponRepository(db)
	addressRepo := mysql.NewAddressRepository(db)
	notifRepo := mysql.NewNotificationRepository(db)

	couponSvc := service.NewCouponService(couponRepo)
	userSvc := service.NewUserService(userRepo, couponSvc, &cfg.JWT)
	productSvc := service.NewProductService(db, productRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	orderSvc := service.NewOrderService(orderRepo)
	checkoutSvc := service.NewCheckoutService(
		db,
		&cfg.Checkout,
		productRepo,
		addressRepo,
		cartRepo,
		orderRepo,
		notifRepo,
		couponSvc,
		service.NewRazorpayConfirmer(),
		service.NewIdempotencyGuard(service.NewRedisCache(redisClient), cfg.Checkout.IdempotencyTTLSeconds),
		service.NewEventPublisher(mqConn),
	)

	app.Get("/metrics", iris.FromStd(metrics.Handler()))

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 用户注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Email     string `json:"email"`
			FirstName string `json:"first_name"`
			Password  string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Email, req.FirstName, req.Password)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": u})
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": iris.Map{"token": token}})
	})

	// 需要登录的接口
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		token = strings.TrimPrefix(token, "Bearer ")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		claims, err := auth.ParseToken(&cfg.JWT, token)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
			return
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("email", claims.Email)
		ctx.Values().Set("first_name", claims.FirstName)
		ctx.Next()
	})

	// 商品列表（支持按名称搜索）
	authAPI.Get("/products", func(ctx iris.Context) {
		keyword := ctx.URLParam("q")
		list, err := productSvc.ListOnline(ctx.Request().Context())
		if err != nil {
			failWith(ctx, err)
			return
		}
		if keyword != "" {
			kw := strings.ToLower(keyword)
			filtered := list[:0]
			for _, p := range list {
				if strings.Contains(strings.ToLower(p.Name), kw) {
					filtered = append(filtered, p)
				}
			}
			list = filtered
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/products/{id:uint64}", func(ctx iris.Context) {
		pid, _ := ctx.Params().GetUint64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), int64(pid))
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// ---------------- 购物车 ----------------

	authAPI.Get("/cart", func(ctx iris.Context) {
		u := authUser(ctx)
		summary, err := cartSvc.GetSummary(ctx.Request().Context(), u.ID)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": summary})
	})

	authAPI.Post("/cart/items", func(ctx iris.Context) {
		var req struct {
			ProductID int64  `json:"product_id"`
			Quantity  int64  `json:"quantity"`
			Color     string `json:"color"`
			Size      string `json:"size"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u := authUser(ctx)
		item, err := cartSvc.AddItem(ctx.Request().Context(), u.ID, req.ProductID, req.Quantity, req.Color, req.Size)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": item})
	})

	authAPI.Put("/cart/items/{id:uint64}", func(ctx iris.Context) {
		itemID, _ := ctx.Params().GetUint64("id")
		var req struct {
			Quantity int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u := authUser(ctx)
		if err := cartSvc.UpdateQuantity(ctx.Request().Context(), u.ID, int64(itemID), req.Quantity); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "updated"})
	})

	authAPI.Delete("/cart/items/{id:uint64}", func(ctx iris.Context) {
		itemID, _ := ctx.Params().GetUint64("id")
		u := authUser(ctx)
		if err := cartSvc.RemoveItem(ctx.Request().Context(), u.ID, int64(itemID)); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "removed"})
	})

	// ---------------- 下单 ----------------

	checkoutAPI := authAPI.Party("/checkout", middleware.CheckoutRateLimit())

	// 立即购买
	checkoutAPI.Post("/buy-now", func(ctx iris.Context) {
		var req service.BuyNowRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		res, err := checkoutSvc.BuyNow(ctx.Request().Context(), authUser(ctx), req)
		if err != nil {
			failWith(ctx, err)
			return
		}
		writeCheckout(ctx, res)
	})

	// 整车下单
	checkoutAPI.Post("/cart", func(ctx iris.Context) {
		var req service.CartCheckoutRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		res, err := checkoutSvc.PlaceOrderFromCart(ctx.Request().Context(), authUser(ctx), req)
		if err != nil {
			failWith(ctx, err)
			return
		}
		writeCheckout(ctx, res)
	})

	// 勾选条目下单
	checkoutAPI.Post("/selected", func(ctx iris.Context) {
		var req service.SelectedItemsCheckoutRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		res, err := checkoutSvc.PlaceOrderFromSelectedItems(ctx.Request().Context(), authUser(ctx), req)
		if err != nil {
			failWith(ctx, err)
			return
		}
		writeCheckout(ctx, res)
	})

	// ---------------- 订单 ----------------

	authAPI.Get("/orders", func(ctx iris.Context) {
		u := authUser(ctx)
		status := ctx.URLParam("status")
		list, err := orderSvc.ListByUser(ctx.Request().Context(), u.ID, status)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Get("/orders/{id:uint64}", func(ctx iris.Context) {
		oid, _ := ctx.Params().GetUint64("id")
		u := authUser(ctx)
		detail, err := orderSvc.GetOwnedDetail(ctx.Request().Context(), u.ID, int64(oid))
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// ---------------- 优惠券 ----------------

	authAPI.Get("/coupons", func(ctx iris.Context) {
		u := authUser(ctx)
		list, err := couponSvc.ListUserCoupons(ctx.Request().Context(), u.ID)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Post("/coupons/{id:uint64}/apply", func(ctx iris.Context) {
		cid, _ := ctx.Params().GetUint64("id")
		u := authUser(ctx)
		if err := couponSvc.Apply(ctx.Request().Context(), u.ID, int64(cid)); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "applied"})
	})

	authAPI.Delete("/coupons/applied", func(ctx iris.Context) {
		u := authUser(ctx)
		if err := couponSvc.Unapply(ctx.Request().Context(), u.ID); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "unapplied"})
	})

	// ---------------- 通知 ----------------

	authAPI.Get("/notifications", func(ctx iris.Context) {
		u := authUser(ctx)
		list, err := notifRepo.ListByUser(ctx.Request().Context(), u.ID, 50)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// ---------------- 地址 ----------------

	authAPI.Get("/addresses", func(ctx iris.Context) {
		u := authUser(ctx)
		list, err := addressRepo.ListByUser(ctx.Request().Context(), u.ID)
		if err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	authAPI.Post("/addresses", func(ctx iris.Context) {
		var req address.Address
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		u := authUser(ctx)
		req.ID = 0
		req.UserID = u.ID
		if req.RecipientName == "" || req.Street == "" || req.City == "" {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": "收件人和地址不能为空"})
			return
		}
		if err := addressRepo.Create(ctx.Request().Context(), &req); err != nil {
			failWith(ctx, err)
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": req})
	})
}
