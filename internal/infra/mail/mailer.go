package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/Miorish-Tech-Team/Backend/internal/config"
)

// Sender 订单确认邮件发送器。发送失败由调用方记日志，不向上传播。
type Sender interface {
	SendOrderPlaced(to, firstName, orderID string, lines []string, totalAmount int64) error
}

type smtpSender struct {
	cfg *config.SMTPConfig
}

// NewSender 创建 SMTP 发送器。cfg.Disabled 时只记日志（开发环境默认）。
func NewSender(cfg *config.SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) SendOrderPlaced(to, firstName, orderID string, lines []string, totalAmount int64) error {
	subject := fmt.Sprintf("订单 %s 已提交", orderID)
	body := fmt.Sprintf("%s 你好，\n\n你的订单 %s 已提交：\n%s\n\n合计：¥%.2f\n",
		firstName, orderID, strings.Join(lines, "\n"), float64(totalAmount)/100)

	if s.cfg.Disabled {
		zap.L().Info("smtp disabled, skipping order email",
			zap.String("to", to), zap.String("order_id", orderID))
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", s.cfg.From, to, subject, body))
	return smtp.SendMail(s.cfg.Addr, nil, s.cfg.From, []string{to}, msg)
}
