package services

import (
	"context"
	"time"

	"bookwell/internal/models"
)

// ReminderStore is the persistence the reminder engine depends on.
// database.ReminderStore is the production implementation.
type ReminderStore interface {
	CreateReminders(ctx context.Context, records []*models.ReminderRecord) error
	// ClaimDue hands out up to limit due records, oldest send_at first, each tagged
	// with the claim token UpdateReminder must present
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.ReminderRecord, error)
	UpdateReminder(ctx context.Context, id, claimToken string, update models.ReminderUpdate) (bool, error)
	CloseByAppointment(ctx context.Context, tenantID, appointmentID, reason string, now time.Time) (int64, error)
	CloseStale(ctx context.Context, sendBefore time.Time, reason string, now time.Time) (int64, error)
	ListByAppointment(ctx context.Context, tenantID, appointmentID string) ([]models.ReminderRecord, error)
	GetAppointmentDetails(ctx context.Context, appointmentID string) (*models.AppointmentDetails, error)
	GetSetting(ctx context.Context, tenantID, reminderType string) (*models.ReminderSetting, error)
}

// EmailMessage is one outbound reminder email
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
	TenantID string
}

// EmailSender delivers email
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// InAppNotification is a notice shown inside the app
type InAppNotification struct {
	TenantID string
	UserID   string
	Type     string
	Category string
	Title    string
	Message  string
	Data     map[string]any
	Link     string
	Icon     string
}

// NotificationSink stores in-app notifications. Push never fails the caller.
type NotificationSink interface {
	Push(ctx context.Context, n InAppNotification)
}

// SendGuard remembers which reminders were already delivered
type SendGuard interface {
	Delivered(ctx context.Context, reminderID string) (bool, error)
	MarkDelivered(ctx context.Context, reminderID string) error
}
