package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/utils"
)

// UserService registers, authenticates and looks up users.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetByEmail returns the user bound to email, or ErrNotFound.
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	return &user, nil
}

// EmailExists reports whether an account already uses email.
func (s *UserService) EmailExists(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", models.NormalizeEmail(email)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return count > 0, nil
}

// Register creates an account with a hashed password. The first account ever
// created becomes the administrator.
func (s *UserService) Register(email, password, name string) (*models.User, error) {
	exists, err := s.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Email:    models.NormalizeEmail(email),
		Name:     name,
		Password: hash,
		Role:     models.RoleUser,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			user.Role = models.RoleAdmin
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks a password against the stored hash. It returns
// ErrNotFound for an unknown email and ErrWrongPassword on mismatch.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// Promote grants the administrator role to the account with email.
func (s *UserService) Promote(email string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	user.Role = models.RoleAdmin
	return user, nil
}
