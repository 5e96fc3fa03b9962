package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Miorish-Tech-Team/Backend/internal/config"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/address"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/cart"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/notification"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/order"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/product"
	"github.com/Miorish-Tech-Team/Backend/internal/metrics"
)

// AuthUser 请求方的认证上下文，由 JWT 中间件注入
type AuthUser struct {
	ID        int64
	Email     string
	FirstName string
}

// BuyNowRequest 立即购买请求
type BuyNowRequest struct {
	ProductID      int64  `json:"product_id"`
	Quantity       int64  `json:"quantity"`
	AddressID      int64  `json:"address_id"`
	PaymentMethod  string `json:"payment_method"`
	ShippingCost   *int64 `json:"shipping_cost"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CartCheckoutRequest 整车下单请求
type CartCheckoutRequest struct {
	AddressID      int64  `json:"address_id"`
	PaymentMethod  string `json:"payment_method"`
	ShippingCost   *int64 `json:"shipping_cost"`
	IdempotencyKey string `json:"idempotency_key"`
}

// SelectedItemsCheckoutRequest 勾选部分购物车条目下单
type SelectedItemsCheckoutRequest struct {
	AddressID     int64   `json:"address_id"`
	PaymentMethod string  `json:"payment_method"`
	CartItemIDs   []int64 `json:"cart_item_ids"`
}

// CheckoutResponse 下单成功响应体，幂等重放时原样返回
type CheckoutResponse struct {
	Message    string             `json:"message"`
	OrderID    string             `json:"order_id"`
	Order      *order.Order       `json:"order"`
	OrderItems []*order.OrderItem `json:"order_items"`
}

// CheckoutResult 含状态码的响应，Replayed 表示来自幂等缓存
type CheckoutResult struct {
	Status   int
	Body     []byte
	Replayed bool
}

// orderLine 事务内的下单行。livePrice 为 true 表示立即购买，
// 以加锁后读到的商品现价为快照价；否则保留加购时的快照价（含 0）。
type orderLine struct {
	productID int64
	quantity  int64
	unitPrice int64
	livePrice bool
}

// resolvePrice 在持有行锁后确定快照单价
func (l *orderLine) resolvePrice(p *product.Product) {
	if l.livePrice {
		l.unitPrice = p.EffectivePrice()
	}
}

// CheckoutService 下单事务协调器：幂等短路 → 开事务 → 锁库存 →
// 兑换优惠券 → 计价 → 支付前置确认 → 写订单 → 扣库存 → 提交 →
// 提交后副作用。任何一步失败整体回滚，不产生半份订单。
type CheckoutService struct {
	db          *gorm.DB
	cfg         *config.CheckoutConfig
	productRepo product.Repository
	addressRepo address.Repository
	cartRepo    cart.Repository
	orderRepo   order.Repository
	notifRepo   notification.Repository
	coupons     *CouponService
	payments    PaymentConfirmer
	idem        *IdempotencyGuard
	publisher   *EventPublisher
}

// NewCheckoutService 创建下单服务
func NewCheckoutService(
	db *gorm.DB,
	cfg *config.CheckoutConfig,
	productRepo product.Repository,
	addressRepo address.Repository,
	cartRepo cart.Repository,
	orderRepo order.Repository,
	notifRepo notification.Repository,
	coupons *CouponService,
	payments PaymentConfirmer,
	idem *IdempotencyGuard,
	publisher *EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		db:          db,
		cfg:         cfg,
		productRepo: productRepo,
		addressRepo: addressRepo,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		notifRepo:   notifRepo,
		coupons:     coupons,
		payments:    payments,
		idem:        idem,
		publisher:   publisher,
	}
}

// BuyNow 立即购买：单商品下单，订单不关联购物车
func (s *CheckoutService) BuyNow(ctx context.Context, u AuthUser, req BuyNowRequest) (*CheckoutResult, error) {
	if res := s.replay(u.ID, req.IdempotencyKey); res != nil {
		return res, nil
	}

	method := order.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, invalidInputErr("不支持的支付方式")
	}
	if req.Quantity <= 0 {
		return nil, invalidInputErr("数量必须大于 0")
	}
	if err := s.checkAddress(ctx, u.ID, req.AddressID); err != nil {
		return nil, err
	}
	shipping := s.shippingOrDefault(req.ShippingCost)

	lines := []orderLine{{productID: req.ProductID, quantity: req.Quantity, livePrice: true}}

	var out *txOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.placeOrderInTx(ctx, tx, u, req.AddressID, method, shipping, nil, lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, u, out, nil)
	return s.finish(u, req.IdempotencyKey, "下单成功", out)
}

// PlaceOrderFromCart 整车下单，提交后清空购物车
func (s *CheckoutService) PlaceOrderFromCart(ctx context.Context, u AuthUser, req CartCheckoutRequest) (*CheckoutResult, error) {
	if res := s.replay(u.ID, req.IdempotencyKey); res != nil {
		return res, nil
	}

	method := order.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, invalidInputErr("不支持的支付方式")
	}
	if err := s.checkAddress(ctx, u.ID, req.AddressID); err != nil {
		return nil, err
	}
	shipping := s.shippingOrDefault(req.ShippingCost)

	c, err := s.cartRepo.GetByUser(ctx, u.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("购物车不存在")
		}
		return nil, err
	}

	var out *txOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.cartRepo.ListItemsInTx(tx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return invalidInputErr("购物车是空的")
		}
		out, err = s.placeOrderInTx(ctx, tx, u, req.AddressID, method, shipping, &c.ID, cartLines(items))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, u, out, func() error {
		return s.cartRepo.ClearItems(ctx, c.ID)
	})
	return s.finish(u, req.IdempotencyKey, "购物车下单成功", out)
}

// PlaceOrderFromSelectedItems 勾选条目下单，只消费并移除选中的行
func (s *CheckoutService) PlaceOrderFromSelectedItems(ctx context.Context, u AuthUser, req SelectedItemsCheckoutRequest) (*CheckoutResult, error) {
	itemIDs := dedupeIDs(req.CartItemIDs)
	if len(itemIDs) == 0 {
		return nil, invalidInputErr("请先勾选要下单的购物车条目")
	}
	method := order.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, invalidInputErr("不支持的支付方式")
	}
	if err := s.checkAddress(ctx, u.ID, req.AddressID); err != nil {
		return nil, err
	}

	c, err := s.cartRepo.GetByUser(ctx, u.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("购物车不存在")
		}
		return nil, err
	}

	var out *txOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.cartRepo.GetItemsByIDsInTx(tx, c.ID, itemIDs)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return invalidInputErr("没有有效的购物车条目")
		}
		if len(items) != len(itemIDs) {
			return invalidInputErr("部分条目不存在或不属于当前用户")
		}
		out, err = s.placeOrderInTx(ctx, tx, u, req.AddressID, method, 0, &c.ID, cartLines(items))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, u, out, func() error {
		return s.cartRepo.RemoveItems(ctx, c.ID, itemIDs)
	})
	return s.finish(u, "", "勾选条目下单成功", out)
}

// txOutcome 事务产出，供提交后副作用使用
type txOutcome struct {
	order      *order.Order
	items      []*order.OrderItem
	totals     Totals
	redemption *CouponRedemption
}

// placeOrderInTx 三条下单路径共用的事务核心。
// 必须已通过参数校验和地址归属校验后才进入。
func (s *CheckoutService) placeOrderInTx(
	ctx context.Context,
	tx *gorm.DB,
	u AuthUser,
	addressID int64,
	method order.PaymentMethod,
	shippingCost int64,
	cartID *int64,
	lines []orderLine,
) (*txOutcome, error) {
	// 1) 按 id 升序一次性锁住所有涉及的商品行
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.productID)
	}
	locked, err := s.productRepo.LockForUpdate(tx, dedupeIDs(ids))
	if err != nil {
		return nil, err
	}
	productMap := make(map[int64]*product.Product, len(locked))
	for _, p := range locked {
		productMap[p.ID] = p
	}

	// 2) 校验库存：先整体校验再扣减，任何缺口都不做部分扣减
	var shortages []StockShortage
	need := make(map[int64]int64, len(lines))
	for i := range lines {
		l := &lines[i]
		p, ok := productMap[l.productID]
		if !ok {
			return nil, notFoundErr(fmt.Sprintf("商品不存在 (ID: %d)", l.productID))
		}
		l.resolvePrice(p)
		need[p.ID] += l.quantity
	}
	for _, p := range locked {
		if need[p.ID] > p.AvailableStock {
			shortages = append(shortages, StockShortage{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   need[p.ID],
				Available:   p.AvailableStock,
			})
		}
	}
	if len(shortages) > 0 {
		metrics.GetCheckout().InsufficientStock.Inc()
		return nil, insufficientStockErr(shortages)
	}

	// 3) 同事务兑换优惠券并计价
	pricingLines := make([]PricingLine, 0, len(lines))
	for _, l := range lines {
		pricingLines = append(pricingLines, PricingLine{UnitPrice: l.unitPrice, Quantity: l.quantity})
	}
	subtotal := Subtotal(pricingLines)

	redemption, err := s.coupons.RedeemInTx(tx, u.ID, subtotal, time.Now())
	if err != nil {
		return nil, err
	}
	var discount int64
	if redemption != nil {
		discount = redemption.Discount
	}
	totals := Totals{
		Subtotal: subtotal,
		Discount: discount,
		Final:    FinalAmount(subtotal, discount, shippingCost),
	}

	// 4) 非货到付款必须先确认支付，未确认直接回滚
	if method != order.PaymentCashOnDelivery {
		ok, err := s.payments.Confirm(ctx, u.ID, totals.Final, method)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidInputErr("支付未确认")
		}
	}

	// 5) 写订单头：唯一性由 unique_order_id 唯一索引兜底，冲突时重试
	paymentStatus := order.PaymentStatusCompleted
	if method == order.PaymentCashOnDelivery {
		paymentStatus = order.PaymentStatusPending
	}
	o := &order.Order{
		UserID:        u.ID,
		CartID:        cartID,
		AddressID:     addressID,
		TotalAmount:   totals.Final,
		ShippingCost:  shippingCost,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		OrderStatus:   order.StatusPending,
		OrderDate:     time.Now(),
	}
	if redemption != nil {
		o.AppliedCouponID = &redemption.CouponID
	}
	created := false
	for i := 0; i < maxOrderIDRetries; i++ {
		o.UniqueOrderID = GenerateOrderID()
		err = s.orderRepo.CreateInTx(tx, o)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	if !created {
		return nil, fmt.Errorf("订单号生成冲突重试 %d 次仍失败", maxOrderIDRetries)
	}

	// 6) 写订单行，快照商品名称/单价/图片
	items := make([]*order.OrderItem, 0, len(lines))
	for _, l := range lines {
		p := productMap[l.productID]
		items = append(items, &order.OrderItem{
			OrderID:         o.ID,
			ProductID:       p.ID,
			Quantity:        l.quantity,
			Price:           l.unitPrice,
			TotalPrice:      l.unitPrice * l.quantity,
			ProductName:     p.Name,
			ProductImageURL: p.CoverImageURL,
		})
	}
	if err := s.orderRepo.CreateItemsInTx(tx, items); err != nil {
		return nil, err
	}

	// 7) 扣库存、加销量，与订单同事务提交
	for _, p := range locked {
		p.AvailableStock -= need[p.ID]
		p.TotalSold += need[p.ID]
		if err := tx.Save(p).Error; err != nil {
			return nil, err
		}
	}

	return &txOutcome{order: o, items: items, totals: totals, redemption: redemption}, nil
}

// afterCommit 提交后的副作用：统计、清车、通知、MQ 事件。
// 全部尽力而为，失败只记日志，绝不影响已提交的订单。
func (s *CheckoutService) afterCommit(ctx context.Context, u AuthUser, out *txOutcome, clearCart func() error) {
	m := metrics.GetCheckout()
	m.RecordSale(out.totals.Final)
	if out.redemption != nil {
		m.CouponsRedeemed.Inc()
	}

	if clearCart != nil {
		if err := clearCart(); err != nil {
			zap.L().Error("clear cart items after commit failed",
				zap.Int64("user_id", u.ID), zap.String("order_id", out.order.UniqueOrderID), zap.Error(err))
		}
	}

	if out.redemption != nil {
		if err := s.notifRepo.Create(ctx, &notification.Notification{
			UserID:  u.ID,
			Title:   "优惠券已使用",
			Message: fmt.Sprintf("优惠券 %s 为你节省了 ¥%.2f", out.redemption.Code, float64(out.redemption.Discount)/100),
			Type:    "coupon",
		}); err != nil {
			zap.L().Warn("create coupon notification failed", zap.Error(err))
		}
	}
	if err := s.notifRepo.Create(ctx, &notification.Notification{
		UserID:     u.ID,
		Title:      "下单成功",
		Message:    fmt.Sprintf("订单 %s 已提交，共 %d 件商品", out.order.UniqueOrderID, len(out.items)),
		Type:       "order",
		CoverImage: out.items[0].ProductImageURL,
	}); err != nil {
		zap.L().Warn("create order notification failed", zap.Error(err))
	}

	ev := &OrderPlacedEvent{
		UserID:        u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		UniqueOrderID: out.order.UniqueOrderID,
		TotalAmount:   out.totals.Final,
	}
	for _, it := range out.items {
		ev.Items = append(ev.Items, OrderEventItem{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price,
			TotalPrice:  it.TotalPrice,
			ImageURL:    it.ProductImageURL,
		})
	}
	if err := s.publisher.PublishOrderPlaced(ctx, ev); err != nil {
		zap.L().Error("publish order event failed",
			zap.String("order_id", out.order.UniqueOrderID), zap.Error(err))
	}
}

// finish 组装响应并写幂等缓存
func (s *CheckoutService) finish(u AuthUser, idemKey, message string, out *txOutcome) (*CheckoutResult, error) {
	body, err := json.Marshal(&CheckoutResponse{
		Message:    message,
		OrderID:    out.order.UniqueOrderID,
		Order:      out.order,
		OrderItems: out.items,
	})
	if err != nil {
		return nil, err
	}
	s.idem.Store(u.ID, idemKey, 201, body)
	return &CheckoutResult{Status: 201, Body: body}, nil
}

func (s *CheckoutService) replay(userID int64, key string) *CheckoutResult {
	body, status, ok := s.idem.Lookup(userID, key)
	if !ok {
		return nil
	}
	metrics.GetCheckout().IdempotentReplays.Inc()
	return &CheckoutResult{Status: status, Body: body, Replayed: true}
}

func (s *CheckoutService) checkAddress(ctx context.Context, userID, addressID int64) error {
	if _, err := s.addressRepo.GetOwned(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("地址不存在或不属于当前用户")
		}
		return err
	}
	return nil
}

func (s *CheckoutService) shippingOrDefault(v *int64) int64 {
	if v != nil && *v >= 0 {
		return *v
	}
	return s.cfg.DefaultShippingCost
}

func cartLines(items []*cart.CartItem) []orderLine {
	lines := make([]orderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, orderLine{
			productID: it.ProductID,
			quantity:  it.Quantity,
			unitPrice: it.Price,
		})
	}
	return lines
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
