package repository

import (
	"time"

	"foodshare_web/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindAllByRole(role models.UserRole) ([]models.User, error)
	// UpdatePresence 回寫在線狀態與最後上線時間，由 PresenceTracker 非同步呼叫
	UpdatePresence(userID uint, isOnline bool, lastSeen time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func newUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAllByRole(role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role = ?", role).Order("last_seen DESC").Find(&users).Error
	return users, err
}

func (r *userRepository) UpdatePresence(userID uint, isOnline bool, lastSeen time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"is_online": isOnline, "last_seen": lastSeen}).Error
}
