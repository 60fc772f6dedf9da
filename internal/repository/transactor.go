package repository

import (
	"foodshare_web/internal/storage"

	"gorm.io/gorm"
)

// HandoffTx 是交接轉換在單一交易內可操作的資料存取集合
// 狀態機的每次轉換（更新物品、標記通知、建立新通知）必須整批成功或整批失敗
type HandoffTx struct {
	Items         ItemRepository
	Conversations ConversationRepository
	Notifications NotificationRepository
}

type Transactor interface {
	Transaction(fn func(tx HandoffTx) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *storage.PostgresDB) Transactor {
	return &gormTransactor{db: db.DB}
}

func (t *gormTransactor) Transaction(fn func(tx HandoffTx) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(HandoffTx{
			Items:         newItemRepository(tx),
			Conversations: newConversationRepository(tx),
			Notifications: newNotificationRepository(tx),
		})
	})
}
