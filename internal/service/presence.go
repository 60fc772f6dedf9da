package service

import (
	"log"
	"sync"
	"time"

	"foodshare_web/internal/repository"
)

// presenceEntry 紀錄單一用戶的在線資訊
type presenceEntry struct {
	online    bool
	lastSeen  time.Time
	lastFlush time.Time  // 上次成功排入回寫的時間，用於節流心跳寫入
	flushMu   sync.Mutex // 序列化同一用戶的回寫，避免快速上下線的寫入順序顛倒
}

// PresenceTracker 在記憶體中維護所有已連線用戶的在線狀態
// 狀態變更立即生效，回寫資料庫則是非同步的盡力而為：寫入失敗只記錄日誌，
// 下一次狀態變更時會再帶著最新值重試
type PresenceTracker struct {
	mu            sync.RWMutex
	entries       map[uint]*presenceEntry
	users         repository.UserRepository
	clock         Clock
	flushInterval time.Duration
}

// NewPresenceTracker 創建並初始化 PresenceTracker
// flushInterval 控制心跳觸發的 lastSeen 回寫頻率，上線/下線變更不受此節流
func NewPresenceTracker(users repository.UserRepository, clock Clock, flushInterval time.Duration) *PresenceTracker {
	return &PresenceTracker{
		entries:       make(map[uint]*presenceEntry),
		users:         users,
		clock:         clock,
		flushInterval: flushInterval,
	}
}

// MarkOnline 將用戶標記為在線
func (t *PresenceTracker) MarkOnline(userID uint) {
	now := t.clock.Now()

	t.mu.Lock()
	entry := t.entry(userID)
	entry.online = true
	entry.lastSeen = now
	entry.lastFlush = now
	t.mu.Unlock()

	t.flush(userID)
}

// MarkOffline 將用戶標記為離線並更新最後上線時間
func (t *PresenceTracker) MarkOffline(userID uint) {
	now := t.clock.Now()

	t.mu.Lock()
	entry := t.entry(userID)
	entry.online = false
	entry.lastSeen = now
	entry.lastFlush = now
	t.mu.Unlock()

	t.flush(userID)
}

// Touch 處理心跳，只更新 lastSeen 不改變在線狀態
// 回寫最多每個 flushInterval 一次，資料庫端採 last-write-wins
func (t *PresenceTracker) Touch(userID uint) {
	now := t.clock.Now()

	t.mu.Lock()
	entry := t.entry(userID)
	entry.lastSeen = now
	shouldFlush := now.Sub(entry.lastFlush) >= t.flushInterval
	if shouldFlush {
		entry.lastFlush = now
	}
	t.mu.Unlock()

	if shouldFlush {
		t.flush(userID)
	}
}

// IsOnline 查詢用戶是否在線
func (t *PresenceTracker) IsOnline(userID uint) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[userID]
	return ok && entry.online
}

// LastSeen 查詢用戶最後上線時間，未曾連線過則第二個回傳值為 false
func (t *PresenceTracker) LastSeen(userID uint) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[userID]
	if !ok {
		return time.Time{}, false
	}
	return entry.lastSeen, true
}

// entry 取得或建立用戶的紀錄，呼叫端必須持有寫鎖
func (t *PresenceTracker) entry(userID uint) *presenceEntry {
	e, ok := t.entries[userID]
	if !ok {
		e = &presenceEntry{}
		t.entries[userID] = e
	}
	return e
}

// flush 非同步回寫用戶的在線資訊到資料庫
// 同一用戶的回寫以 flushMu 序列化，並在取得鎖之後才讀取目前狀態，
// 所以最後一次寫入一定帶著最新的在線資訊
func (t *PresenceTracker) flush(userID uint) {
	go func() {
		t.mu.RLock()
		entry, ok := t.entries[userID]
		t.mu.RUnlock()
		if !ok {
			return
		}

		entry.flushMu.Lock()
		defer entry.flushMu.Unlock()

		t.mu.RLock()
		online := entry.online
		lastSeen := entry.lastSeen
		t.mu.RUnlock()

		if err := t.users.UpdatePresence(userID, online, lastSeen); err != nil {
			log.Printf("presence flush failed for user %d: %v", userID, err)
		}
	}()
}
