package models

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jinzhu/gorm"
)

// Role controls access to the admin API
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents a registered customer or administrator
type User struct {
	gorm.Model
	Name         string        `json:"name"`
	Email        string        `json:"email" gorm:"unique_index;not null"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role" gorm:"default:'customer'"`
	Addresses    []UserAddress `json:"addresses" gorm:"foreignkey:UserID"`
	PhoneNumber  string        `json:"phoneNumber,omitempty"`
}

// UserAddress is one of a user's saved delivery addresses
type UserAddress struct {
	gorm.Model
	UserID    uint `json:"-" gorm:"index"`
	Address   `gorm:"embedded"`
	IsDefault bool `json:"isDefault"`
}

const (
	maxNameLength     = 60
	MinPasswordLength = 8
	MaxPasswordLength = 16
)

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^[1-9]\d{9}$`)
)

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks the fields a new account needs
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return NewValidationError("", "All fields are required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return NewValidationError("name", "Name cannot be more than %d characters", maxNameLength)
	}
	if !emailPattern.MatchString(email) {
		return NewValidationError("email", "Invalid email format")
	}
	if len(password) < MinPasswordLength {
		return NewValidationError("password", "Password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return NewValidationError("password", "Password must not be more than %d characters", MaxPasswordLength)
	}
	return nil
}

// ValidatePhoneNumber accepts an empty number or a 10-digit number not starting with 0
func ValidatePhoneNumber(phone string) error {
	if phone == "" || phonePattern.MatchString(phone) {
		return nil
	}
	return NewValidationError("phoneNumber", "Please enter a valid 10-digit phone number")
}

// IsAdmin reports whether the user may use the admin API
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
