package service

import (
	"errors"

	"gorm.io/gorm"

	"foodshare_web/internal/apperrors"
	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

// ConversationService 提供對話與歷史訊息的讀取
// 客戶端在（重新）連線時透過這裡重載完整歷史，WebSocket 只負責即時流量
type ConversationService struct {
	convs repository.ConversationRepository
}

func NewConversationService(convs repository.ConversationRepository) *ConversationService {
	return &ConversationService{convs: convs}
}

// ListForUser 列出用戶參與的所有對話，依最近活動排序
func (s *ConversationService) ListForUser(userID uint, role models.UserRole) ([]models.Conversation, error) {
	convs, err := s.convs.FindAllByUser(userID, role)
	if err != nil {
		return nil, apperrors.Persistence("無法讀取對話列表", err)
	}
	return convs, nil
}

// GetWithMessages 取得單一對話與完整訊息歷史，只有參與者可以讀取
func (s *ConversationService) GetWithMessages(conversationID, userID uint) (*models.Conversation, error) {
	conv, err := s.convs.FindByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("對話不存在")
		}
		return nil, apperrors.Persistence("無法讀取對話", err)
	}

	if !conv.HasParticipant(userID) {
		return nil, apperrors.Validation("不是此對話的參與者")
	}
	return conv, nil
}
