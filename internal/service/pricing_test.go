package service

import (
	"testing"

	"github.com/Miorish-Tech-Team/Backend/internal/datamodels/coupon"
)

func TestSubtotal(t *testing.T) {
	lines := []PricingLine{
		{UnitPrice: 1000, Quantity: 2},
		{UnitPrice: 250, Quantity: 4},
	}
	if got := Subtotal(lines); got != 3000 {
		t.Fatalf("Subtotal = %d, want 3000", got)
	}
	if got := Subtotal(nil); got != 0 {
		t.Fatalf("Subtotal(nil) = %d, want 0", got)
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []PricingLine
		discount coupon.Discount
		shipping int64
		want     Totals
	}{
		{
			name:     "no coupon no shipping",
			lines:    []PricingLine{{UnitPrice: 500, Quantity: 2}},
			discount: coupon.Discount{Kind: coupon.DiscountNone},
			want:     Totals{Subtotal: 1000, Discount: 0, Final: 1000},
		},
		{
			name:     "percentage coupon with shipping",
			lines:    []PricingLine{{UnitPrice: 1000, Quantity: 1}},
			discount: coupon.Discount{Kind: coupon.DiscountPercentage, Percentage: 10},
			shipping: 50,
			want:     Totals{Subtotal: 1000, Discount: 100, Final: 950},
		},
		{
			name:     "flat coupon",
			lines:    []PricingLine{{UnitPrice: 300, Quantity: 3}},
			discount: coupon.Discount{Kind: coupon.DiscountFlat, Amount: 200},
			want:     Totals{Subtotal: 900, Discount: 200, Final: 700},
		},
		{
			name:     "flat coupon larger than subtotal is clamped",
			lines:    []PricingLine{{UnitPrice: 100, Quantity: 1}},
			discount: coupon.Discount{Kind: coupon.DiscountFlat, Amount: 5000},
			shipping: 30,
			want:     Totals{Subtotal: 100, Discount: 100, Final: 30},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, tt.discount, tt.shipping)
			if got != tt.want {
				t.Fatalf("ComputeTotals = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFinalAmountNeverNegativeWithClampedDiscount(t *testing.T) {
	subtotal := int64(100)
	discount := coupon.Discount{Kind: coupon.DiscountFlat, Amount: 999999}.Apply(subtotal)
	if got := FinalAmount(subtotal, discount, 0); got != 0 {
		t.Fatalf("FinalAmount = %d, want 0", got)
	}
}
