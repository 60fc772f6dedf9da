package repository

import (
	"foodshare_web/internal/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.ChatMessage) error
	FindByConversationID(conversationID uint) ([]models.ChatMessage, error)
}

type messageRepository struct {
	db *gorm.DB
}

func newMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindByConversationID(conversationID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").Find(&messages).Error
	return messages, err
}
