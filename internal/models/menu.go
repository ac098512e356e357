package models

import (
	"github.com/jinzhu/gorm"
)

// MenuItem represents a dish on a restaurant's menu
type MenuItem struct {
	gorm.Model
	RestaurantID uint        `json:"restaurantId" gorm:"index"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Price        float64     `json:"price"`
	Image        string      `json:"image,omitempty"`
	Category     string      `json:"category"`
	Popular      bool        `json:"popular"`
	Available    bool        `json:"available"`
	Allergens    StringSlice `json:"allergens,omitempty" gorm:"type:text"`
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	// Menu categories
	MenuCategoryAppetizer  MenuCategory = "Appetizers"
	MenuCategoryMainCourse MenuCategory = "Main Course"
	MenuCategoryDessert    MenuCategory = "Desserts"
	MenuCategoryDrink      MenuCategory = "Drinks"
	MenuCategorySide       MenuCategory = "Sides"
	MenuCategorySpecial    MenuCategory = "Specials"
)

// MenuCategories lists every category in display order
var MenuCategories = []MenuCategory{
	MenuCategoryAppetizer,
	MenuCategoryMainCourse,
	MenuCategoryDessert,
	MenuCategoryDrink,
	MenuCategorySide,
	MenuCategorySpecial,
}

// Allergens lists the allergens the storefront knows about
var Allergens = []string{"Dairy", "Nuts", "Gluten", "Soy", "Shellfish"}

// HasAllergen checks if the item contains a specific allergen
func (mi *MenuItem) HasAllergen(allergen string) bool {
	return mi.Allergens.Contains(allergen)
}
