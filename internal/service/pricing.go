package service

import "github.com/Miorish-Tech-Team/Backend/internal/datamodels/coupon"

// PricingLine 参与计价的一行：下单承诺时的快照单价与数量
type PricingLine struct {
	UnitPrice int64 // 分
	Quantity  int64
}

// Totals 计价结果，全部为分
type Totals struct {
	Subtotal int64
	Discount int64
	Final    int64
}

// Subtotal 按快照单价求和，不回读商品当前价格
func Subtotal(lines []PricingLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.UnitPrice * l.Quantity
	}
	return sum
}

// FinalAmount 应付金额：subtotal − discount + shipping。
// discount 必须已按 subtotal 封顶。
func FinalAmount(subtotal, discount, shippingCost int64) int64 {
	return subtotal - discount + shippingCost
}

// ComputeTotals 纯函数计价：final = subtotal − discount + shipping。
// 折扣由 Discount.Apply 封顶，扣完不会出现负的应付金额。
func ComputeTotals(lines []PricingLine, d coupon.Discount, shippingCost int64) Totals {
	subtotal := Subtotal(lines)
	discount := d.Apply(subtotal)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Final:    FinalAmount(subtotal, discount, shippingCost),
	}
}
