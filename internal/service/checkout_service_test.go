package service

import (
	"context"
	"testing"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/cart"
	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/product"
)

// 仅覆盖进入事务前的参数校验路径，不触达数据库
func validationOnlyCheckoutService() *CheckoutService {
	return &CheckoutService{
		idem: NewIdempotencyGuard(newFakeCache(), 60),
	}
}

func TestBuyNowRejectsUnknownPaymentMethod(t *testing.T) {
	s := validationOnlyCheckoutService()
	_, err := s.BuyNow(context.Background(), AuthUser{ID: 1}, BuyNowRequest{
		ProductID:     1,
		Quantity:      1,
		AddressID:     1,
		PaymentMethod: "Bitcoin",
	})
	if err == nil {
		t.Fatal("expected error for unknown payment method")
	}
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("KindOf = %v, want KindInvalidInput", KindOf(err))
	}
}

func TestBuyNowRejectsNonPositiveQuantity(t *testing.T) {
	s := validationOnlyCheckoutService()
	for _, q := range []int64{0, -3} {
		_, err := s.BuyNow(context.Background(), AuthUser{ID: 1}, BuyNowRequest{
			ProductID:     1,
			Quantity:      q,
			AddressID:     1,
			PaymentMethod: "CashOnDelivery",
		})
		if err == nil || KindOf(err) != KindInvalidInput {
			t.Fatalf("quantity %d: err = %v, want invalid input", q, err)
		}
	}
}

func TestSelectedItemsCheckoutRejectsEmptySelection(t *testing.T) {
	s := validationOnlyCheckoutService()
	_, err := s.PlaceOrderFromSelectedItems(context.Background(), AuthUser{ID: 1}, SelectedItemsCheckoutRequest{
		AddressID:     1,
		PaymentMethod: "CashOnDelivery",
	})
	if err == nil || KindOf(err) != KindInvalidInput {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestResolvePriceOnlyRepricesBuyNowLines(t *testing.T) {
	p := &product.Product{Price: 1000, DiscountPrice: 800}

	// 立即购买：锁后取商品现价
	live := orderLine{productID: 1, quantity: 1, livePrice: true}
	live.resolvePrice(p)
	if live.unitPrice != 800 {
		t.Fatalf("live unitPrice = %d, want 800", live.unitPrice)
	}

	// 购物车行：保留加购快照价，哪怕快照价恰好为 0
	for _, snapshot := range []int64{0, 500} {
		l := orderLine{productID: 1, quantity: 1, unitPrice: snapshot}
		l.resolvePrice(p)
		if l.unitPrice != snapshot {
			t.Fatalf("snapshot %d repriced to %d", snapshot, l.unitPrice)
		}
	}
}

func TestCartLinesKeepSnapshotPrices(t *testing.T) {
	lines := cartLines([]*cart.CartItem{
		{ProductID: 1, Quantity: 2, Price: 0},
		{ProductID: 2, Quantity: 1, Price: 700},
	})
	if lines[0].livePrice || lines[1].livePrice {
		t.Fatal("cart lines must never be repriced at lock time")
	}
	if lines[0].unitPrice != 0 || lines[1].unitPrice != 700 {
		t.Fatalf("unexpected snapshot prices: %+v", lines)
	}
}

func TestDedupeIDsKeepsFirstOccurrenceOrder(t *testing.T) {
	got := dedupeIDs([]int64{3, 1, 3, 2, 1})
	want := []int64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("dedupeIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dedupeIDs = %v, want %v", got, want)
		}
	}
}
