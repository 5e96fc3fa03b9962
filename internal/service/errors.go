package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 下单错误分类，路由层据此映射 HTTP 状态码
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidInput
	KindInsufficientStock
)

// StockShortage 单个商品的缺口明细
type StockShortage struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

// CheckoutError 带分类的下单错误。事务内任何一处返回它都会整体回滚。
type CheckoutError struct {
	Kind      ErrorKind
	Message   string
	Shortages []StockShortage
}

func (e *CheckoutError) Error() string {
	if len(e.Shortages) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s(需 %d 件，剩 %d 件)", s.ProductName, s.Requested, s.Available))
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func notFoundErr(msg string) *CheckoutError {
	return &CheckoutError{Kind: KindNotFound, Message: msg}
}

func invalidInputErr(msg string) *CheckoutError {
	return &CheckoutError{Kind: KindInvalidInput, Message: msg}
}

func insufficientStockErr(shortages []StockShortage) *CheckoutError {
	return &CheckoutError{
		Kind:      KindInsufficientStock,
		Message:   "库存不足",
		Shortages: shortages,
	}
}

// KindOf 提取错误分类，非 CheckoutError 一律视为内部错误
func KindOf(err error) ErrorKind {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// ShortagesOf 提取缺口明细（若有）
func ShortagesOf(err error) []StockShortage {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Shortages
	}
	return nil
}
