package models

import (
	"gorm.io/gorm"
)

// Conversation 表示提供者與慈善機構之間針對一件捐贈物品的聊天對話
// 一個對話固定只有一位提供者和一位慈善機構參與；
// 物品重設後換另一個慈善機構認領時會建立新的對話
type Conversation struct {
	gorm.Model
	ProviderID uint               `json:"provider_id" gorm:"index"`
	CharityID  uint               `json:"charity_id" gorm:"index;index:idx_conversation_cycle,unique"`
	ItemID     uint               `json:"item_id" gorm:"index;index:idx_conversation_cycle,unique"`
	Status     ConversationStatus `json:"status" gorm:"type:varchar(20);default:'open'"`
	Messages   []ChatMessage      `json:"messages" gorm:"foreignKey:ConversationID"` // 依寫入順序排列的訊息列表
}

// ConversationStatus 定義對話狀態的類型
type ConversationStatus string

const (
	ConversationOpen      ConversationStatus = "open"
	ConversationConfirmed ConversationStatus = "confirmed"
)

// HasParticipant 檢查用戶是否為此對話的參與者
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.ProviderID == userID || c.CharityID == userID
}
