package repository

import (
	"foodshare_web/internal/models"

	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(item *models.DonationItem) error
	FindByID(id uint) (*models.DonationItem, error)
	Update(item *models.DonationItem) error
	FindAll() ([]models.DonationItem, error)
	FindAvailable() ([]models.DonationItem, error)
}

type itemRepository struct {
	db *gorm.DB
}

func newItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(item *models.DonationItem) error {
	return r.db.Create(item).Error
}

func (r *itemRepository) FindByID(id uint) (*models.DonationItem, error) {
	var item models.DonationItem
	err := r.db.First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Update(item *models.DonationItem) error {
	return r.db.Save(item).Error
}

func (r *itemRepository) FindAll() ([]models.DonationItem, error) {
	var items []models.DonationItem
	err := r.db.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *itemRepository) FindAvailable() ([]models.DonationItem, error) {
	var items []models.DonationItem
	err := r.db.Where("status = ?", models.ItemAvailable).
		Order("created_at DESC").Find(&items).Error
	return items, err
}
