package models

import "gorm.io/gorm"

// Article is an editorial write-up about a single subject. It shares the
// tagged subject reference with Review.
type Article struct {
	gorm.Model
	Title       string      `json:"title" gorm:"not null"`
	Content     string      `json:"content" gorm:"type:text"`
	ImageURL    string      `json:"imageURL"`
	SubjectKind SubjectKind `json:"subjectKind" gorm:"type:varchar(20);not null;index:idx_articles_subject"`
	SubjectID   uint        `json:"subjectID" gorm:"not null;index:idx_articles_subject"`
}

func (a *Article) SubjectRef() SubjectRef {
	return SubjectRef{Kind: a.SubjectKind, SubjectID: a.SubjectID}
}
