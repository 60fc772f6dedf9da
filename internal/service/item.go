package service

import (
	"errors"

	"gorm.io/gorm"

	"foodshare_web/internal/apperrors"
	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

// ItemService 提供捐贈物品的基本建立與查詢，交接流程由 HandoffService 負責
type ItemService struct {
	items repository.ItemRepository
}

func NewItemService(items repository.ItemRepository) *ItemService {
	return &ItemService{items: items}
}

// CreateItem 建立一件新的捐贈物品，初始狀態為 available
func (s *ItemService) CreateItem(providerID uint, title, description, quantity, pickupLocation string) (*models.DonationItem, error) {
	item := &models.DonationItem{
		Title:          title,
		Description:    description,
		Quantity:       quantity,
		PickupLocation: pickupLocation,
		Status:         models.ItemAvailable,
		ProviderID:     providerID,
	}
	if err := s.items.Create(item); err != nil {
		return nil, apperrors.Persistence("建立物品失敗", err)
	}
	return item, nil
}

func (s *ItemService) GetItem(itemID uint) (*models.DonationItem, error) {
	item, err := s.items.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("物品不存在")
		}
		return nil, apperrors.Persistence("無法讀取物品", err)
	}
	return item, nil
}

// ListItems 列出所有物品，availableOnly 為 true 時只列出可認領的
func (s *ItemService) ListItems(availableOnly bool) ([]models.DonationItem, error) {
	var items []models.DonationItem
	var err error
	if availableOnly {
		items, err = s.items.FindAvailable()
	} else {
		items, err = s.items.FindAll()
	}
	if err != nil {
		return nil, apperrors.Persistence("無法讀取物品列表", err)
	}
	return items, nil
}
