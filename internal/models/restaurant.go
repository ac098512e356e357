package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

// Address is a postal address embedded in restaurants, users and orders
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// OpeningHours describes when a restaurant takes orders.
// Open and Close are "HH:MM" in local time; a Close at or before Open wraps past midnight.
// DaysOpen uses time.Weekday numbering (0 = Sunday).
type OpeningHours struct {
	Open     string   `json:"open"`
	Close    string   `json:"close"`
	DaysOpen IntSlice `json:"daysOpen" gorm:"type:text"`
}

// Restaurant represents a restaurant listed on the storefront
type Restaurant struct {
	gorm.Model
	Name           string       `json:"name" gorm:"not null"`
	Description    string       `json:"description"`
	Address        Address      `json:"address" gorm:"embedded;embedded_prefix:address_"`
	Cuisine        StringSlice  `json:"cuisine" gorm:"type:text"`
	Rating         float64      `json:"rating"`
	DeliveryTime   int          `json:"deliveryTime" gorm:"not null"` // base delivery minutes
	DeliveryFee    float64      `json:"deliveryFee"`
	MinOrderAmount float64      `json:"minOrderAmount"`
	Menu           []MenuItem   `json:"menu,omitempty" gorm:"foreignkey:RestaurantID"`
	OpeningHours   OpeningHours `json:"openingHours" gorm:"embedded;embedded_prefix:hours_"`
	Image          string       `json:"image,omitempty"`
	Featured       bool         `json:"featured"`
	ManuallyClosed bool         `json:"manuallyClosed"`
}

// BeforeSave normalises the rating before it reaches the database
func (r *Restaurant) BeforeSave() error {
	r.Rating = RoundRating(r.Rating)
	return nil
}

// RoundRating clamps a rating to [0,5] and rounds it to one decimal
func RoundRating(v float64) float64 {
	v = math.Max(0, math.Min(5, v))
	return math.Round(v*10) / 10
}

// Validate checks the fields an admin may change
func (r *Restaurant) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "restaurant name is required")
	}
	if r.DeliveryTime <= 0 {
		return NewValidationError("deliveryTime", "must be a positive number of minutes")
	}
	if r.DeliveryFee < 0 {
		return NewValidationError("deliveryFee", "must not be negative")
	}
	if r.MinOrderAmount < 0 {
		return NewValidationError("minOrderAmount", "must not be negative")
	}
	if _, err := parseClock(r.OpeningHours.Open); err != nil {
		return NewValidationError("openingHours.open", "%v", err)
	}
	if _, err := parseClock(r.OpeningHours.Close); err != nil {
		return NewValidationError("openingHours.close", "%v", err)
	}
	for _, d := range r.OpeningHours.DaysOpen {
		if d < 0 || d > 6 {
			return NewValidationError("openingHours.daysOpen", "day %d out of range 0-6", d)
		}
	}
	return nil
}

// IsOpenAt reports whether the restaurant accepts orders at t
func (r *Restaurant) IsOpenAt(t time.Time) bool {
	if r.ManuallyClosed {
		return false
	}

	open, err := parseClock(r.OpeningHours.Open)
	if err != nil {
		return false
	}
	closeAt, err := parseClock(r.OpeningHours.Close)
	if err != nil {
		return false
	}

	now := t.Hour()*60 + t.Minute()
	day := int(t.Weekday())

	if open < closeAt {
		return now >= open && now < closeAt && r.openOn(day)
	}

	// Window wraps midnight: the early-morning part belongs to the previous day's shift.
	if now >= open {
		return r.openOn(day)
	}
	if now < closeAt {
		return r.openOn((day + 6) % 7)
	}
	return false
}

func (r *Restaurant) openOn(day int) bool {
	if len(r.OpeningHours.DaysOpen) == 0 {
		return true
	}
	return r.OpeningHours.DaysOpen.Contains(day)
}

// FindMenuItem returns the menu item with the given id, or nil
func (r *Restaurant) FindMenuItem(id uint) *MenuItem {
	for i := range r.Menu {
		if r.Menu[i].ID == id {
			return &r.Menu[i]
		}
	}
	return nil
}

// parseClock converts "HH:MM" into minutes after midnight
func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
