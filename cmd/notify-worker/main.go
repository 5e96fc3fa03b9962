package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/Miorish-Tech-Team/Backend/internal/config"
	"github.com/Miorish-Tech-Team/Backend/internal/infra/mail"
	"github.com/Miorish-Tech-Team/Backend/internal/infra/mq"
	applog "github.com/Miorish-Tech-Team/Backend/internal/log"
	"github.com/Miorish-Tech-Team/Backend/internal/service"
)

const orderEventsQueue = "order_events"

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applog.InitLogger()

	mqConn := mq.Init(&cfg.RabbitMQ)
	sender := mail.NewSender(&cfg.SMTP)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(orderEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(orderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("notify worker started, waiting for order events...")

	for d := range msgs {
		var ev service.OrderPlacedEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Printf("invalid order event: %v", err)
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}

		lines := make([]string, 0, len(ev.Items))
		for _, it := range ev.Items {
			lines = append(lines, fmt.Sprintf("%s x%d ¥%.2f", it.ProductName, it.Quantity, float64(it.TotalPrice)/100))
		}
		if err := sender.SendOrderPlaced(ev.Email, ev.FirstName, ev.UniqueOrderID, lines, ev.TotalAmount); err != nil {
			// 邮件失败不重入队，避免对同一订单反复发信
			log.Printf("send order email failed, order=%s: %v", ev.UniqueOrderID, err)
			_ = d.Nack(false, false)
			continue
		}

		log.Printf("order email sent, order=%s user=%d", ev.UniqueOrderID, ev.UserID)
		if err := d.Ack(false); err != nil {
			log.Printf("failed to ack message: %v", err)
		}
	}
}
