// Package notification 實作狀態轉換觸發的通知發送：SMTP 郵件與 AMQP 事件
// 發送一律是盡力而為，失敗只記錄日誌，不回滾觸發它的狀態轉換
package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"foodshare_web/internal/config"
)

// Mailer 透過 SMTP 發送通知郵件
type Mailer struct {
	config config.SMTPConfig
	server string
	auth   smtp.Auth
}

// NewMailer 創建一個新的 Mailer
func NewMailer(cfg config.SMTPConfig) *Mailer {
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	return &Mailer{
		config: cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
	}
}

// IsConfigured 回報 SMTP 是否已設定，未設定時發送會被略過
func (m *Mailer) IsConfigured() bool {
	return m.config.Host != "" && m.config.Port != "" && m.config.From != ""
}

// SendEmail 發送純文字郵件
func (m *Mailer) SendEmail(to []string, subject, body string) error {
	if !m.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := m.config.From
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		subject,
		body,
	))

	return smtp.SendMail(m.server, m.auth, m.config.From, to, msg)
}
