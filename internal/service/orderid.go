package service

import (
	"fmt"
	"math/rand"
)

// maxOrderIDRetries 订单号唯一索引冲突时的重试上限。
// 冲突概率极低，真正的唯一性由存储层唯一约束保证。
const maxOrderIDRetries = 5

func randomDigits(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rand.Intn(10))
	}
	return string(buf)
}

// GenerateOrderID 生成形如 333-5555555-6666666 的订单号
func GenerateOrderID() string {
	return fmt.Sprintf("%s-%s-%s", randomDigits(3), randomDigits(7), randomDigits(7))
}
