package models

import (
	"gorm.io/gorm"
)

// DonationItem 表示一件待捐贈的食物
type DonationItem struct {
	gorm.Model
	Title          string     `json:"title" gorm:"not null"`
	Description    string     `json:"description" gorm:"type:text"`
	Quantity       string     `json:"quantity"`
	PickupLocation string     `json:"pickup_location"`
	Status         ItemStatus `json:"status" gorm:"type:varchar(30);default:'available';index"`
	ProviderID     uint       `json:"provider_id" gorm:"index"`
	CharityID      uint       `json:"charity_id"` // 為 0 表示尚無慈善機構認領
}

// ItemStatus 定義捐贈物品交接流程的狀態
type ItemStatus string

const (
	ItemAvailable         ItemStatus = "available"          // 可供認領
	ItemPending           ItemStatus = "pending"            // 慈善機構已提出請求，等待提供者回覆
	ItemProviderConfirmed ItemStatus = "provider_confirmed" // 提供者已確認，等待慈善機構確認收到
	ItemCharityConfirmed  ItemStatus = "charity_confirmed"  // 慈善機構已確認收到
	ItemPickedUp          ItemStatus = "picked_up"          // 已完成取貨，流程終點
)

// HandoffEvent 定義觸發狀態轉換的事件
type HandoffEvent string

const (
	EventCharityRequest  HandoffEvent = "charity_request"  // 慈善機構提出領取請求
	EventProviderConfirm HandoffEvent = "provider_confirm" // 提供者確認提供
	EventProviderReject  HandoffEvent = "provider_reject"  // 提供者拒絕請求
	EventCharityConfirm  HandoffEvent = "charity_confirm"  // 慈善機構確認收到
	EventCharityDeny     HandoffEvent = "charity_deny"     // 慈善機構否認收到
	EventExpire          HandoffEvent = "expire"           // 確認期限到期
	EventPickup          HandoffEvent = "pickup"           // 實際取貨完成
)

// handoffTransitions 是交接狀態機的轉換表：目前狀態 + 事件 -> 下一個狀態
// 拒絕、否認與到期都會把物品重設回 available 並清除慈善機構的關聯
var handoffTransitions = map[ItemStatus]map[HandoffEvent]ItemStatus{
	ItemAvailable: {
		EventCharityRequest: ItemPending,
	},
	ItemPending: {
		EventProviderConfirm: ItemProviderConfirmed,
		EventProviderReject:  ItemAvailable,
		EventExpire:          ItemAvailable,
	},
	ItemProviderConfirmed: {
		EventCharityConfirm: ItemCharityConfirmed,
		EventCharityDeny:    ItemAvailable,
		EventProviderReject: ItemAvailable,
		EventExpire:         ItemAvailable,
		EventPickup:         ItemPickedUp,
	},
	ItemCharityConfirmed: {
		EventPickup: ItemPickedUp,
	},
}

// NextStatus 查詢在目前狀態下套用事件後的狀態
// 第二個回傳值為 false 表示該事件在目前狀態下不被允許
func (s ItemStatus) NextStatus(event HandoffEvent) (ItemStatus, bool) {
	next, ok := handoffTransitions[s][event]
	return next, ok
}
