package models

import "gorm.io/gorm"

// AuditLog records an admin mutation for the activity feed.
type AuditLog struct {
	gorm.Model
	AdminUserID  uint   `json:"adminUserID" gorm:"index"`
	Action       string `json:"action" gorm:"index"`
	ResourceType string `json:"resourceType"`
	ResourceID   uint   `json:"resourceID"`
	BeforeJSON   string `json:"beforeJSON" gorm:"type:text"`
	AfterJSON    string `json:"afterJSON" gorm:"type:text"`
	IPAddress    string `json:"ipAddress"`
}
