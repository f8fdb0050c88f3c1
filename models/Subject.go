package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubjectKind tags the two directory entities that share one table.
type SubjectKind string

const (
	KindRestaurant SubjectKind = "restaurant"
	KindSpot       SubjectKind = "spot"
)

func (k SubjectKind) Valid() bool {
	return k == KindRestaurant || k == KindSpot
}

// SubjectRef identifies exactly one restaurant or spot.
type SubjectRef struct {
	Kind      SubjectKind `json:"kind"`
	SubjectID uint        `json:"subjectID"`
}

// Subject is a restaurant or hangout spot in the Blok M directory.
type Subject struct {
	gorm.Model
	Kind        SubjectKind    `json:"kind" gorm:"type:varchar(20);not null;index"`
	Name        string         `json:"name" gorm:"not null"`
	Category    string         `json:"category" gorm:"index"`
	Location    string         `json:"location" gorm:"index"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price"`
	ImageURL    string         `json:"imageURL"`
	Gallery     datatypes.JSON `json:"gallery"`
	Reviews     []Review       `json:"reviews,omitempty" gorm:"foreignKey:SubjectID"`
}
