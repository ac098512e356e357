package store

import (
	"context"
	"errors"
	"fmt"

	"feastly/internal/models"
)

// ErrEmailTaken is returned when registering an email that already has an account
var ErrEmailTaken = errors.New("email already registered")

// CreateUser inserts a user with its addresses. The email must already be normalised.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.WithTx(ctx, func(tx *Store) error {
		var count int
		if err := tx.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// GetUser loads a user and their saved addresses
func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Addresses").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// GetUserByEmail finds a user by normalised email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Addresses").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user", email)
	}
	return &user, nil
}

// DeleteAllUsers hard-deletes users and their addresses
func (s *Store) DeleteAllUsers(ctx context.Context) error {
	if err := s.db.Unscoped().Delete(&models.UserAddress{}).Error; err != nil {
		return fmt.Errorf("failed to clear addresses: %w", err)
	}
	if err := s.db.Unscoped().Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	return nil
}
