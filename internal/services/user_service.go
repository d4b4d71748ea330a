package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/waikato-ufdl/simple-teams/internal/log"
	"github.com/waikato-ufdl/simple-teams/internal/models"
)

// maxUsernameLength matches the size of models.User.Username.
const maxUsernameLength = 150

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// CreateUser stores a new user. Usernames are unique.
func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || utf8.RuneCountInString(user.Username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, user.Username)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", ErrUsernameTaken, user.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Log.WithField(log.UserField, user.ID.String()).
		WithField("username", user.Username).
		Info("user created")

	return user, nil
}

// GetUser looks a user up by username.
func (s *UserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
