package models

import "gorm.io/gorm"

// Review is a user rating of a single subject. The (subject_kind, subject_id)
// pair identifies exactly one restaurant or spot, so a review can never point
// at both or neither.
type Review struct {
	gorm.Model
	UserID      uint        `json:"userID" gorm:"not null;index"`
	SubjectKind SubjectKind `json:"subjectKind" gorm:"type:varchar(20);not null;index:idx_reviews_subject"`
	SubjectID   uint        `json:"subjectID" gorm:"not null;index:idx_reviews_subject"`
	Content     string      `json:"content" gorm:"type:text;not null"`
	Rating      float64     `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	User        User        `json:"user" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (r *Review) SubjectRef() SubjectRef {
	return SubjectRef{Kind: r.SubjectKind, SubjectID: r.SubjectID}
}
