package repository

import (
	"errors"
	"time"

	"foodshare_web/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(n *models.ConfirmationNotification) error
	FindByID(id uint) (*models.ConfirmationNotification, error)
	UpdateStatus(id uint, status models.NotificationStatus) error
	// FindPendingByItem 查詢某物品是否有尚未處理的指定類型通知，不存在時回傳 (nil, nil)
	FindPendingByItem(itemID uint, ntype models.NotificationType) (*models.ConfirmationNotification, error)
	// FindExpiredConfirmations 查詢已超過確認期限、仍為 pending 的確認通知
	FindExpiredConfirmations(now time.Time) ([]models.ConfirmationNotification, error)
	FindAllByUser(userID uint) ([]models.ConfirmationNotification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func newNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.ConfirmationNotification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepository) FindByID(id uint) (*models.ConfirmationNotification, error) {
	var n models.ConfirmationNotification
	err := r.db.First(&n, id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) UpdateStatus(id uint, status models.NotificationStatus) error {
	return r.db.Model(&models.ConfirmationNotification{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *notificationRepository) FindPendingByItem(itemID uint, ntype models.NotificationType) (*models.ConfirmationNotification, error) {
	var n models.ConfirmationNotification
	err := r.db.Where("item_id = ? AND type = ? AND status = ?",
		itemID, ntype, models.NotificationPending).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) FindExpiredConfirmations(now time.Time) ([]models.ConfirmationNotification, error) {
	var ns []models.ConfirmationNotification
	err := r.db.Where("type = ? AND status = ? AND expires_at <= ?",
		models.NotificationConfirmation, models.NotificationPending, now).
		Order("expires_at ASC").Find(&ns).Error
	return ns, err
}

func (r *notificationRepository) FindAllByUser(userID uint) ([]models.ConfirmationNotification, error) {
	var ns []models.ConfirmationNotification
	err := r.db.Where("provider_id = ? OR charity_id = ?", userID, userID).
		Order("created_at DESC").Find(&ns).Error
	return ns, err
}
