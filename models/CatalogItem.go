package models

import "gorm.io/gorm"

// CatalogItem is a menu entry belonging to exactly one restaurant.
// Rating here is display-only copy set by admins, never computed.
type CatalogItem struct {
	gorm.Model
	RestaurantID uint    `json:"restaurantID" gorm:"not null;index"`
	Restaurant   Subject `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Name         string  `json:"name" gorm:"not null"`
	Category     string  `json:"category" gorm:"index"`
	Location     string  `json:"location"`
	Price        float64 `json:"price"`
	Rating       float64 `json:"rating"`
	Description  string  `json:"description" gorm:"type:text"`
	ImageURL     string  `json:"imageURL"`
}
