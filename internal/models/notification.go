package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is an in-app notice shown to a tenant user
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TenantID  string         `gorm:"size:36;not null;index:idx_notification_tenant_user" json:"tenant_id"`
	UserID    string         `gorm:"size:36;index:idx_notification_tenant_user" json:"user_id"`
	Type      string         `gorm:"size:50;not null" json:"type"`
	Category  string         `gorm:"size:50" json:"category"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data"`
	Link      string         `gorm:"size:255" json:"link"`
	Icon      string         `gorm:"size:50" json:"icon"`
	Read      bool           `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notification"
}
