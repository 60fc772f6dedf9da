package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage 代表一個統一的消息結構，同時滿足 WebSocket 和數據庫存儲需求
type ChatMessage struct {
	gorm.Model
	Type           string    `json:"type" gorm:"type:varchar(50)"`
	ConversationID uint      `json:"conversation_id" gorm:"index"`
	SenderID       uint      `json:"sender_id"`
	Role           UserRole  `json:"role" gorm:"type:varchar(20)"`
	Content        string    `json:"content" gorm:"type:text"`
	Timestamp      time.Time `json:"timestamp"`
	// TempID 是客戶端產生的樂觀更新對應碼，只在 WebSocket 回傳時使用，不寫入資料庫
	TempID string `json:"temp_id,omitempty" gorm:"-"`
}

const (
	MessageTypeChat   = "chat_message"
	MessageTypeSystem = "system_message"
)

// NewChatMessage 創建一個新的聊天消息，時間戳由呼叫端的時鐘提供
func NewChatMessage(conversationID, senderID uint, content string, role UserRole, tempID string, at time.Time) *ChatMessage {
	return &ChatMessage{
		Type:           MessageTypeChat,
		ConversationID: conversationID,
		SenderID:       senderID,
		Role:           role,
		Content:        content,
		Timestamp:      at,
		TempID:         tempID,
	}
}

// NewSystemMessage 創建一個新的系統消息
func NewSystemMessage(conversationID uint, content string, at time.Time) *ChatMessage {
	return &ChatMessage{
		Type:           MessageTypeSystem,
		ConversationID: conversationID,
		Content:        content,
		Timestamp:      at,
	}
}
