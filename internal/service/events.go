package service

import "foodshare_web/internal/models"

// 客戶端事件類型
const (
	EventJoin      = "join"
	EventLeave     = "leave"
	EventSend      = "send"
	EventHeartbeat = "heartbeat"
)

// 伺服器事件類型
const (
	EventNewMessage   = "new-message"
	EventStatusUpdate = "status-update"
	EventSystem       = "system"
	EventError        = "error"
)

// ClientEvent 是客戶端送進來的事件，解析後依 Type 分派
// 每種事件只使用對應的欄位，未知類型會回覆 error 事件
type ClientEvent struct {
	Type    string `json:"type"`
	RoomID  uint   `json:"room_id,omitempty"`
	Content string `json:"content,omitempty"`
	TempID  string `json:"temp_id,omitempty"` // 客戶端樂觀更新用的對應碼，原樣回傳
}

// ServerEvent 是伺服器推送給客戶端的事件
type ServerEvent struct {
	Type    string              `json:"type"`
	RoomID  uint                `json:"room_id,omitempty"`
	Message *models.ChatMessage `json:"message,omitempty"`
	ItemID  uint                `json:"item_id,omitempty"`
	Status  string              `json:"status,omitempty"`
	Content string              `json:"content,omitempty"`
	Error   string              `json:"error,omitempty"`
}
