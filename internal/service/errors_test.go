package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(notFoundErr("x")); got != KindNotFound {
		t.Fatalf("KindOf(notFound) = %v", got)
	}
	if got := KindOf(invalidInputErr("x")); got != KindInvalidInput {
		t.Fatalf("KindOf(invalidInput) = %v", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf(plain) = %v", got)
	}
	// 包装后的错误也能识别
	wrapped := fmt.Errorf("place order: %w", notFoundErr("x"))
	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf(wrapped) = %v", got)
	}
}

func TestInsufficientStockErrCarriesShortages(t *testing.T) {
	err := insufficientStockErr([]StockShortage{
		{ProductID: 7, ProductName: "风衣", Requested: 3, Available: 1},
		{ProductID: 9, ProductName: "围巾", Requested: 2, Available: 0},
	})

	if KindOf(err) != KindInsufficientStock {
		t.Fatalf("KindOf = %v, want KindInsufficientStock", KindOf(err))
	}
	got := ShortagesOf(err)
	if len(got) != 2 {
		t.Fatalf("ShortagesOf = %d entries, want 2", len(got))
	}
	if got[0].ProductID != 7 || got[0].Requested != 3 || got[0].Available != 1 {
		t.Fatalf("unexpected shortage detail: %+v", got[0])
	}
	if !strings.Contains(err.Error(), "风衣") || !strings.Contains(err.Error(), "围巾") {
		t.Fatalf("error message missing product names: %s", err.Error())
	}

	if ShortagesOf(errors.New("boom")) != nil {
		t.Fatal("plain errors must not carry shortages")
	}
}
