package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username       string         `json:"username" gorm:"index"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email" gorm:"uniqueIndex"`
	Password       string         `json:"-"`
	SocialLogin    bool           `json:"socialLogin"`
	SocialProvider string         `json:"socialProvider"`
	AvatarURL      string         `json:"avatarURL"`
	SavedSubjects  datatypes.JSON `json:"savedSubjects"`
	Role           string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin
	Reviews        []Review       `json:"reviews,omitempty" gorm:"foreignKey:UserID"`
}

// MarshalJSON normalizes the JSON-typed columns so clients always see arrays.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedSubjects []SubjectRef `json:"savedSubjects"`
		*Alias
	}{
		SavedSubjects: []SubjectRef{},
		Alias:         (*Alias)(u),
	}

	if u.SavedSubjects != nil {
		var saved []SubjectRef
		if err := json.Unmarshal(u.SavedSubjects, &saved); err == nil && saved != nil {
			aux.SavedSubjects = saved
		}
	}

	// Reviews are excluded to prevent circular references
	aux.Reviews = nil

	return json.Marshal(aux)
}
