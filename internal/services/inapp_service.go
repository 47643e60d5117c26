package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bookwell/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InAppService writes in-app notifications to the notification table
type InAppService struct {
	db *gorm.DB
}

// NewInAppService creates a sink over db
func NewInAppService(db *gorm.DB) *InAppService {
	return &InAppService{db: db}
}

// Push stores n. Failures are logged and dropped.
func (s *InAppService) Push(ctx context.Context, n InAppNotification) {
	data := datatypes.JSON("{}")
	if len(n.Data) > 0 {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			log.Printf("in-app notification: failed to encode data for tenant %s: %v", n.TenantID, err)
		} else {
			data = datatypes.JSON(raw)
		}
	}

	notif := models.Notification{
		TenantID:  n.TenantID,
		UserID:    n.UserID,
		Type:      n.Type,
		Category:  n.Category,
		Title:     n.Title,
		Message:   n.Message,
		Data:      data,
		Link:      n.Link,
		Icon:      n.Icon,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&notif).Error; err != nil {
		log.Printf("in-app notification: failed to store %q for tenant %s: %v", n.Title, n.TenantID, err)
	}
}
