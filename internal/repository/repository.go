package repository

import "foodshare_web/internal/storage"

type Repositories struct {
	User         UserRepository
	Conversation ConversationRepository
	Message      MessageRepository
	Item         ItemRepository
	Notification NotificationRepository
	Tx           Transactor
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:         newUserRepository(db.DB),
		Conversation: newConversationRepository(db.DB),
		Message:      newMessageRepository(db.DB),
		Item:         newItemRepository(db.DB),
		Notification: newNotificationRepository(db.DB),
		Tx:           NewTransactor(db),
	}
}
