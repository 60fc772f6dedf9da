package service

import (
	"foodshare_web/internal/models"
	"foodshare_web/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateUser(user *models.User) error {
	return s.userRepo.Create(user)
}

func (s *UserService) GetUserByUsername(username string) (*models.User, error) {
	return s.userRepo.FindByUsername(username)
}

// ListByRole 列出指定角色的用戶，含回寫後的在線狀態與最後上線時間
func (s *UserService) ListByRole(role models.UserRole) ([]models.User, error) {
	return s.userRepo.FindAllByRole(role)
}
