package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

// Dispatcher 將交接流程產生的通知發送給相關用戶
// 同時走兩條通道：SMTP 郵件與 AMQP 事件，兩者都是盡力而為
type Dispatcher struct {
	mailer    *Mailer
	publisher Publisher
	users     repository.UserRepository
}

// NewDispatcher 創建一個新的 Dispatcher
// publisher 可以為 nil（未設定 AMQP 時），此時只發送郵件
func NewDispatcher(mailer *Mailer, publisher Publisher, users repository.UserRepository) *Dispatcher {
	return &Dispatcher{
		mailer:    mailer,
		publisher: publisher,
		users:     users,
	}
}

// Dispatch 非同步發送通知，立即返回，不阻塞呼叫端的狀態轉換
func (d *Dispatcher) Dispatch(n *models.ConfirmationNotification, item *models.DonationItem) {
	go d.dispatch(n, item)
}

func (d *Dispatcher) dispatch(n *models.ConfirmationNotification, item *models.DonationItem) {
	if d.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event := NotificationEvent{
			Type:       n.Type,
			Status:     n.Status,
			ItemID:     n.ItemID,
			ProviderID: n.ProviderID,
			CharityID:  n.CharityID,
			Message:    n.Message,
			ExpiresAt:  n.ExpiresAt,
		}
		key := "notification." + string(n.Type)
		if err := d.publisher.Publish(ctx, key, event); err != nil {
			log.Printf("notification publish failed (%s, item %d): %v", n.Type, n.ItemID, err)
		}
	}

	if d.mailer != nil && d.mailer.IsConfigured() {
		d.sendEmails(n, item)
	}
}

// sendEmails 依通知類型寄信給應收到的那一方
func (d *Dispatcher) sendEmails(n *models.ConfirmationNotification, item *models.DonationItem) {
	subject, recipients := d.routing(n, item)

	for _, userID := range recipients {
		if userID == 0 {
			continue
		}
		user, err := d.users.FindByID(userID)
		if err != nil {
			log.Printf("notification recipient lookup failed (user %d): %v", userID, err)
			continue
		}
		if user.Email == "" {
			continue
		}

		body := n.Message
		if n.ExpiresAt != nil {
			body = fmt.Sprintf("%s\n\n確認期限：%s", n.Message, n.ExpiresAt.Format("2006-01-02 15:04"))
		}
		if err := d.mailer.SendEmail([]string{user.Email}, subject, body); err != nil {
			log.Printf("notification email failed (user %d): %v", userID, err)
		}
	}
}

// routing 決定各類型通知的主旨與收件者
func (d *Dispatcher) routing(n *models.ConfirmationNotification, item *models.DonationItem) (string, []uint) {
	switch n.Type {
	case models.NotificationRequest:
		return fmt.Sprintf("新的領取請求：%s", item.Title), []uint{n.ProviderID}
	case models.NotificationConfirmation:
		return fmt.Sprintf("請確認收件：%s", item.Title), []uint{n.CharityID}
	case models.NotificationReminder:
		return fmt.Sprintf("確認期限已過：%s", item.Title), []uint{n.ProviderID, n.CharityID}
	default:
		return fmt.Sprintf("狀態更新：%s", item.Title), []uint{n.ProviderID, n.CharityID}
	}
}
