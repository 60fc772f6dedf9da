package repository

import (
	"errors"

	"foodshare_web/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository interface {
	Create(conv *models.Conversation) error
	// FindByID 取得對話與依時間排序的完整訊息列表
	FindByID(id uint) (*models.Conversation, error)
	// FindByItemAndCharity 取得某件捐贈物品與某慈善機構之間的對話，不存在時回傳 (nil, nil)
	// 物品被重設後由另一個慈善機構認領會是一個新的對話
	FindByItemAndCharity(itemID, charityID uint) (*models.Conversation, error)
	FindAllByUser(userID uint, role models.UserRole) ([]models.Conversation, error)
	Update(conv *models.Conversation) error
	// Touch 只更新 updated_at，讓對話列表能依最近活動排序
	Touch(id uint) error
}

type conversationRepository struct {
	db *gorm.DB
}

func newConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(conv *models.Conversation) error {
	return r.db.Create(conv).Error
}

func (r *conversationRepository) FindByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp ASC, id ASC")
	}).First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByItemAndCharity(itemID, charityID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("item_id = ? AND charity_id = ?", itemID, charityID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindAllByUser(userID uint, role models.UserRole) ([]models.Conversation, error) {
	var convs []models.Conversation
	query := r.db.Order("updated_at DESC")
	if role == models.RoleProvider {
		query = query.Where("provider_id = ?", userID)
	} else {
		query = query.Where("charity_id = ?", userID)
	}
	err := query.Find(&convs).Error
	return convs, err
}

func (r *conversationRepository) Update(conv *models.Conversation) error {
	return r.db.Save(conv).Error
}

func (r *conversationRepository) Touch(id uint) error {
	return r.db.Model(&models.Conversation{}).Where("id = ?", id).
		Update("updated_at", gorm.Expr("NOW()")).Error
}
