package coupon

import (
	"testing"
	"time"
)

func TestDiscountApply(t *testing.T) {
	tests := []struct {
		name     string
		d        Discount
		subtotal int64
		want     int64
	}{
		{"none", Discount{Kind: DiscountNone}, 1000, 0},
		{"percentage", Discount{Kind: DiscountPercentage, Percentage: 10}, 1000, 100},
		{"percentage rounds down", Discount{Kind: DiscountPercentage, Percentage: 33}, 100, 33},
		{"flat", Discount{Kind: DiscountFlat, Amount: 300}, 1000, 300},
		{"flat clamped to subtotal", Discount{Kind: DiscountFlat, Amount: 5000}, 1000, 1000},
		{"zero subtotal", Discount{Kind: DiscountPercentage, Percentage: 50}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Apply(tt.subtotal); got != tt.want {
				t.Fatalf("Apply(%d) = %d, want %d", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestCouponDiscountVariant(t *testing.T) {
	// 两列都有值时百分比优先
	c := &Coupon{DiscountPercentage: 15, DiscountAmount: 500}
	if d := c.Discount(); d.Kind != DiscountPercentage || d.Percentage != 15 {
		t.Fatalf("Discount() = %+v, want percentage 15", d)
	}

	c = &Coupon{DiscountAmount: 500}
	if d := c.Discount(); d.Kind != DiscountFlat || d.Amount != 500 {
		t.Fatalf("Discount() = %+v, want flat 500", d)
	}

	c = &Coupon{}
	if d := c.Discount(); d.Kind != DiscountNone {
		t.Fatalf("Discount() = %+v, want none", d)
	}
}

func TestRedeemableAt(t *testing.T) {
	now := time.Now()
	base := Coupon{
		IsActive:  true,
		ValidFrom: now.Add(-time.Hour),
		ValidTill: now.Add(time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(*Coupon)
		want   bool
	}{
		{"valid", func(c *Coupon) {}, true},
		{"inactive", func(c *Coupon) { c.IsActive = false }, false},
		{"not started", func(c *Coupon) { c.ValidFrom = now.Add(time.Minute) }, false},
		{"expired", func(c *Coupon) { c.ValidTill = now.Add(-time.Minute) }, false},
		{"usage limit reached", func(c *Coupon) { c.MaxUsageLimit = 3; c.UsageCount = 3 }, false},
		{"under usage limit", func(c *Coupon) { c.MaxUsageLimit = 3; c.UsageCount = 2 }, true},
		{"zero limit means unlimited", func(c *Coupon) { c.UsageCount = 100000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if got := c.RedeemableAt(now); got != tt.want {
				t.Fatalf("RedeemableAt = %v, want %v", got, tt.want)
			}
		})
	}
}
