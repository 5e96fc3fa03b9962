package service

import (
	"regexp"
	"testing"
)

var orderIDPattern = regexp.MustCompile(`^\d{3}-\d{7}-\d{7}$`)

func TestGenerateOrderIDFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := GenerateOrderID()
		if !orderIDPattern.MatchString(id) {
			t.Fatalf("GenerateOrderID() = %q, want ddd-ddddddd-ddddddd", id)
		}
	}
}
