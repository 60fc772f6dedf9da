package service

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

// 測試共用的記憶體版 repositories 與假時鐘
// 行為模仿資料庫：FindByID 回傳副本，查無資料回傳 gorm.ErrRecordNotFound

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memItemRepo struct {
	mu        sync.Mutex
	items     map[uint]models.DonationItem
	nextID    uint
	updateErr error
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uint]models.DonationItem), nextID: 1}
}

func (r *memItemRepo) Create(item *models.DonationItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) FindByID(id uint) (*models.DonationItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := item
	return &copy, nil
}

func (r *memItemRepo) Update(item *models.DonationItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) FindAll() ([]models.DonationItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DonationItem
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *memItemRepo) FindAvailable() ([]models.DonationItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DonationItem
	for _, item := range r.items {
		if item.Status == models.ItemAvailable {
			out = append(out, item)
		}
	}
	return out, nil
}

type memNotifRepo struct {
	mu     sync.Mutex
	notifs map[uint]models.ConfirmationNotification
	nextID uint
}

func newMemNotifRepo() *memNotifRepo {
	return &memNotifRepo{notifs: make(map[uint]models.ConfirmationNotification), nextID: 1}
}

func (r *memNotifRepo) Create(n *models.ConfirmationNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID
	r.nextID++
	r.notifs[n.ID] = *n
	return nil
}

func (r *memNotifRepo) FindByID(id uint) (*models.ConfirmationNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := n
	return &copy, nil
}

func (r *memNotifRepo) UpdateStatus(id uint, status models.NotificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Status = status
	r.notifs[id] = n
	return nil
}

func (r *memNotifRepo) FindPendingByItem(itemID uint, ntype models.NotificationType) (*models.ConfirmationNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifs {
		if n.ItemID == itemID && n.Type == ntype && n.Status == models.NotificationPending {
			copy := n
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *memNotifRepo) FindExpiredConfirmations(now time.Time) ([]models.ConfirmationNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ConfirmationNotification
	for _, n := range r.notifs {
		if n.Type == models.NotificationConfirmation && n.Status == models.NotificationPending &&
			n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotifRepo) FindAllByUser(userID uint) ([]models.ConfirmationNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ConfirmationNotification
	for _, n := range r.notifs {
		if n.ProviderID == userID || n.CharityID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

// countByType 統計指定類型的通知數量，測試用
func (r *memNotifRepo) countByType(ntype models.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifs {
		if n.Type == ntype {
			count++
		}
	}
	return count
}

type memConvRepo struct {
	mu     sync.Mutex
	convs  map[uint]models.Conversation
	nextID uint
}

func newMemConvRepo() *memConvRepo {
	return &memConvRepo{convs: make(map[uint]models.Conversation), nextID: 1}
}

func (r *memConvRepo) Create(conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv.ID = r.nextID
	r.nextID++
	r.convs[conv.ID] = *conv
	return nil
}

func (r *memConvRepo) FindByID(id uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := conv
	return &copy, nil
}

func (r *memConvRepo) FindByItemAndCharity(itemID, charityID uint) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.convs {
		if conv.ItemID == itemID && conv.CharityID == charityID {
			copy := conv
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *memConvRepo) FindAllByUser(userID uint, role models.UserRole) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Conversation
	for _, conv := range r.convs {
		if (role == models.RoleProvider && conv.ProviderID == userID) ||
			(role == models.RoleCharity && conv.CharityID == userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (r *memConvRepo) Update(conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[conv.ID] = *conv
	return nil
}

func (r *memConvRepo) Touch(id uint) error {
	return nil
}

type memMsgRepo struct {
	mu        sync.Mutex
	messages  []models.ChatMessage
	nextID    uint
	createErr error
}

func newMemMsgRepo() *memMsgRepo {
	return &memMsgRepo{nextID: 1}
}

func (r *memMsgRepo) Create(message *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	message.ID = r.nextID
	r.nextID++
	r.messages = append(r.messages, *message)
	return nil
}

func (r *memMsgRepo) FindByConversationID(conversationID uint) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type presenceRow struct {
	online   bool
	lastSeen time.Time
}

type memUserRepo struct {
	mu       sync.Mutex
	users    map[uint]models.User
	presence map[uint]presenceRow
	flushes  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:    make(map[uint]models.User),
		presence: make(map[uint]presenceRow),
	}
}

func (r *memUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := user
	return &copy, nil
}

func (r *memUserRepo) FindByUsername(username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copy := user
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindAllByRole(role models.UserRole) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdatePresence(userID uint, isOnline bool, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presence[userID] = presenceRow{online: isOnline, lastSeen: lastSeen}
	r.flushes++
	return nil
}

func (r *memUserRepo) presenceOf(userID uint) (presenceRow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.presence[userID]
	return row, ok
}

func (r *memUserRepo) flushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

// memTransactor 在測試中直接以記憶體 repositories 執行交易函數
// 不模擬回滾：測試只驗證成功路徑的整體效果與失敗路徑的錯誤回傳
type memTransactor struct {
	tx repository.HandoffTx
}

func (t *memTransactor) Transaction(fn func(tx repository.HandoffTx) error) error {
	return fn(t.tx)
}

type mockNotifier struct {
	mu         sync.Mutex
	dispatched []models.ConfirmationNotification
}

func (n *mockNotifier) Dispatch(notif *models.ConfirmationNotification, item *models.DonationItem) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched = append(n.dispatched, *notif)
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.dispatched)
}

var errStorageDown = errors.New("storage down")
