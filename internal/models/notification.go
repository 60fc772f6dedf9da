package models

import (
	"time"

	"gorm.io/gorm"
)

// ConfirmationNotification 表示交接流程中每次狀態轉換留下的通知紀錄
// 建立後除了 Status 欄位外不再修改
type ConfirmationNotification struct {
	gorm.Model
	Type       NotificationType   `json:"type" gorm:"type:varchar(30);index"`
	Status     NotificationStatus `json:"status" gorm:"type:varchar(20);index"`
	ItemID     uint               `json:"item_id" gorm:"index"`
	ProviderID uint               `json:"provider_id"`
	CharityID  uint               `json:"charity_id"`
	Message    string             `json:"message" gorm:"type:text"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"` // 只有 confirmation 類型有確認期限
}

// NotificationType 定義通知的類型
type NotificationType string

const (
	NotificationRequest      NotificationType = "request"      // 慈善機構的領取請求
	NotificationConfirmation NotificationType = "confirmation" // 提供者確認後等待收件確認
	NotificationReminder     NotificationType = "reminder"     // 確認逾期後的提醒
	NotificationGeneral      NotificationType = "general"      // 一般狀態通知
)

// NotificationStatus 定義通知的處理狀態
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationConfirmed NotificationStatus = "confirmed"
	NotificationRejected  NotificationStatus = "rejected"
	NotificationExpired   NotificationStatus = "expired"
)
