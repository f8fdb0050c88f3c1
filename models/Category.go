package models

import "gorm.io/gorm"

// Category is a fixed taxonomy entry for subjects or catalog items.
// Subject columns stay free text; these tables only feed the enumeration
// endpoints and the seed script.
type Category struct {
	gorm.Model
	Kind      string `json:"kind" gorm:"type:varchar(20);not null;index"` // restaurant, spot, catalog
	Name      string `json:"name" gorm:"not null"`
	SortOrder int    `json:"sortOrder"`
	IsActive  bool   `json:"isActive" gorm:"default:true"`
}

// Location is a fixed Blok M area entry, per subject kind.
type Location struct {
	gorm.Model
	Kind      string `json:"kind" gorm:"type:varchar(20);not null;index"`
	Name      string `json:"name" gorm:"not null"`
	SortOrder int    `json:"sortOrder"`
	IsActive  bool   `json:"isActive" gorm:"default:true"`
}
