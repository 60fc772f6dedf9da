package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"foodshare_web/internal/apperrors"
	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

// Client 代表一個 WebSocket 客戶端連接
// 一個連接可以同時加入多個對話房間，房間集合由 WebSocketManager 的鎖保護
type Client struct {
	ID       string             // 連接識別碼
	Conn     *websocket.Conn    // WebSocket 連接
	UserID   uint               // 用戶 ID
	Role     models.UserRole    // 用戶角色 (provider/charity)
	SendChan chan *ServerEvent  // 事件發送通道，用於異步傳送事件
	rooms    map[uint]bool      // 已加入的房間集合，只能在持有 manager 鎖時讀寫
}

// NewClient 創建一個新的客戶端連接
func NewClient(conn *websocket.Conn, userID uint, role models.UserRole) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Conn:     conn,
		UserID:   userID,
		Role:     role,
		SendChan: make(chan *ServerEvent, 256), // 設置緩衝大小為 256 的事件通道
		rooms:    make(map[uint]bool),
	}
}

// room 是單一對話房間的即時狀態
// appendMu 序列化同一房間的「寫入資料庫後廣播」流程，保證成員看到的訊息順序
// 與資料庫中的順序一致；不同房間互不影響
type room struct {
	appendMu sync.Mutex
	clients  map[*Client]bool
}

// WebSocketManager 管理所有的 WebSocket 連接和房間成員關係
// 它只是「目前誰在聽」的索引，訊息內容的唯一真實來源是資料庫；
// 程序重啟後由新連接重新建立，不需要回放
type WebSocketManager struct {
	mu    sync.RWMutex   // 保護 rooms 與各 Client 的 rooms 集合
	rooms map[uint]*room // conversationID -> room

	messages repository.MessageRepository
	convs    repository.ConversationRepository
	presence *PresenceTracker
	clock    Clock
}

// NewWebSocketManager 創建並初始化新的 WebSocket 管理器
func NewWebSocketManager(messages repository.MessageRepository, convs repository.ConversationRepository, presence *PresenceTracker, clock Clock) *WebSocketManager {
	return &WebSocketManager{
		rooms:    make(map[uint]*room),
		messages: messages,
		convs:    convs,
		presence: presence,
		clock:    clock,
	}
}

// HandleClient 處理一個已通過身份驗證的客戶端連接，阻塞直到連接關閉
func (m *WebSocketManager) HandleClient(client *Client) {
	m.presence.MarkOnline(client.UserID)

	go m.writePump(client)
	m.readPump(client)

	// readPump 結束代表連接已斷開，清理所有房間成員關係與在線狀態
	m.Disconnect(client)
	close(client.SendChan)
	client.Conn.Close()
}

// readPump 持續監聽並處理從客戶端接收的事件
func (m *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(4096) // 設置最大訊息大小為 4KB
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		// 解析接收到的事件
		var event ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			m.sendError(client, "無法解析事件")
			continue
		}

		m.dispatch(client, &event)
	}
}

// dispatch 依事件類型分派處理，操作層級的錯誤只回傳給發起的客戶端
func (m *WebSocketManager) dispatch(client *Client, event *ClientEvent) {
	switch event.Type {
	case EventJoin:
		if err := m.JoinRoom(client, event.RoomID); err != nil {
			m.sendErrorFrom(client, err)
		}
	case EventLeave:
		m.LeaveRoom(client, event.RoomID)
	case EventSend:
		if _, err := m.Send(client, event.RoomID, event.Content, event.TempID); err != nil {
			m.sendErrorFrom(client, err)
		}
	case EventHeartbeat:
		m.Heartbeat(client)
	default:
		m.sendError(client, "未知的事件類型: "+event.Type)
	}
}

// writePump 處理向客戶端發送事件的邏輯
func (m *WebSocketManager) writePump(client *Client) {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.SendChan:
			// 設置寫入超時
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			// 發送心跳包
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// JoinRoom 將客戶端加入指定對話的房間，重複加入是無操作
// 房間在對應的對話存在時才有效，對話不存在只記錄日誌不回傳錯誤
func (m *WebSocketManager) JoinRoom(client *Client, roomID uint) error {
	conv, err := m.convs.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("join ignored: conversation %d does not exist", roomID)
			return nil
		}
		return apperrors.Persistence("無法讀取對話", err)
	}

	if !conv.HasParticipant(client.UserID) {
		return apperrors.Validation("不是此對話的參與者")
	}

	m.mu.Lock()
	if client.rooms[roomID] {
		m.mu.Unlock()
		return nil
	}
	r, ok := m.rooms[roomID]
	if !ok {
		r = &room{clients: make(map[*Client]bool)}
		m.rooms[roomID] = r
	}
	r.clients[client] = true
	client.rooms[roomID] = true
	m.mu.Unlock()

	m.BroadcastSystemMessage(roomID, fmt.Sprintf("用戶 %d 加入對話", client.UserID))
	return nil
}

// LeaveRoom 將客戶端移出房間，不關閉連接
func (m *WebSocketManager) LeaveRoom(client *Client, roomID uint) {
	m.mu.Lock()
	left := client.rooms[roomID]
	m.removeFromRoom(client, roomID)
	m.mu.Unlock()

	if left {
		m.BroadcastSystemMessage(roomID, fmt.Sprintf("用戶 %d 離開對話", client.UserID))
	}
}

// removeFromRoom 移除成員關係，房間空了就刪除房間，呼叫端必須持有寫鎖
func (m *WebSocketManager) removeFromRoom(client *Client, roomID uint) {
	delete(client.rooms, roomID)
	if r, ok := m.rooms[roomID]; ok {
		delete(r.clients, client)
		if len(r.clients) == 0 {
			delete(m.rooms, roomID)
		}
	}
}

// Send 驗證並處理一則聊天訊息：先寫入資料庫，成功後才廣播給房間內所有成員
// （包含發送者本人，讓其客戶端能以 temp_id 對應並替換樂觀顯示的暫存訊息）
// 寫入失敗時不做任何廣播，錯誤只回傳給發送者
func (m *WebSocketManager) Send(client *Client, roomID uint, content, tempID string) (*models.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("訊息內容不能為空")
	}

	m.mu.RLock()
	r, ok := m.rooms[roomID]
	member := ok && client.rooms[roomID]
	m.mu.RUnlock()

	if !member {
		return nil, apperrors.Validation("尚未加入此對話")
	}

	// 同一房間的寫入與廣播在此序列化，確保廣播順序等於資料庫順序
	r.appendMu.Lock()
	defer r.appendMu.Unlock()

	message := models.NewChatMessage(roomID, client.UserID, content, client.Role, tempID, m.clock.Now())
	if err := m.messages.Create(message); err != nil {
		return nil, apperrors.Persistence("訊息寫入失敗", err)
	}
	if err := m.convs.Touch(roomID); err != nil {
		log.Printf("conversation touch failed for %d: %v", roomID, err)
	}

	m.broadcast(roomID, &ServerEvent{
		Type:    EventNewMessage,
		RoomID:  roomID,
		Message: message,
	})
	return message, nil
}

// Heartbeat 處理客戶端心跳，刷新最後上線時間
func (m *WebSocketManager) Heartbeat(client *Client) {
	m.presence.Touch(client.UserID)
}

// Disconnect 將客戶端移出所有房間並標記為離線
func (m *WebSocketManager) Disconnect(client *Client) {
	m.mu.Lock()
	for roomID := range client.rooms {
		m.removeFromRoom(client, roomID)
	}
	m.mu.Unlock()

	m.presence.MarkOffline(client.UserID)
}

// BroadcastSystemMessage 發送系統事件到指定房間，系統事件不寫入資料庫
func (m *WebSocketManager) BroadcastSystemMessage(roomID uint, content string) {
	m.broadcast(roomID, &ServerEvent{
		Type:    EventSystem,
		RoomID:  roomID,
		Content: content,
	})
}

// BroadcastStatusUpdate 通知房間成員捐贈物品的狀態變更
func (m *WebSocketManager) BroadcastStatusUpdate(roomID, itemID uint, status models.ItemStatus) {
	m.broadcast(roomID, &ServerEvent{
		Type:   EventStatusUpdate,
		RoomID: roomID,
		ItemID: itemID,
		Status: string(status),
	})
}

// GetRoomClients 獲取指定房間的在線客戶端數量
func (m *WebSocketManager) GetRoomClients(roomID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.rooms[roomID]; ok {
		return len(r.clients)
	}
	return 0
}

// broadcast 向房間內的所有客戶端發送事件
// 在持有讀鎖時將事件排入各客戶端的通道，確保不會寫入已被 Disconnect
// 關閉流程處理過的通道；排不進去的慢客戶端直接斷線
func (m *WebSocketManager) broadcast(roomID uint, event *ServerEvent) {
	var slow []*Client

	m.mu.RLock()
	r, ok := m.rooms[roomID]
	if !ok {
		m.mu.RUnlock()
		return
	}
	for client := range r.clients {
		select {
		case client.SendChan <- event:
			// 事件成功加入發送隊列
		default:
			// 客戶端事件隊列已滿，稍後關閉連接
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	for _, client := range slow {
		log.Printf("closing slow websocket client %s (user %d)", client.ID, client.UserID)
		client.Conn.Close()
	}
}

// sendError 只向單一客戶端回覆錯誤事件，不影響房間其他成員
func (m *WebSocketManager) sendError(client *Client, message string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	select {
	case client.SendChan <- &ServerEvent{Type: EventError, Error: message}:
	default:
	}
}

// sendErrorFrom 取出應用層錯誤中適合給用戶看的訊息
func (m *WebSocketManager) sendErrorFrom(client *Client, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		m.sendError(client, appErr.Message)
		return
	}
	m.sendError(client, "操作失敗")
}
