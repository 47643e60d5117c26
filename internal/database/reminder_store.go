package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookwell/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderStore is the gorm-backed persistence for reminder records and the
// appointment data they are rendered from
type ReminderStore struct {
	db *gorm.DB
}

// NewReminderStore creates a store over db
func NewReminderStore(db *gorm.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// CreateReminders inserts records in one batch
func (s *ReminderStore) CreateReminders(ctx context.Context, records []*models.ReminderRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		r.SendAt = r.SendAt.UTC()
	}
	if err := s.db.WithContext(ctx).Create(records).Error; err != nil {
		return fmt.Errorf("failed to create reminders: %w", err)
	}
	return nil
}

// dueScope selects pending rows past send_at and next_retry_at, plus claims
// abandoned for longer than lease
func dueScope(now time.Time, lease time.Duration) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(
			"(status = ? AND send_at <= ? AND (next_retry_at IS NULL OR next_retry_at <= ?)) OR (status = ? AND claimed_at <= ?)",
			models.ReminderPending, now, now, models.ReminderClaimed, now.Add(-lease),
		)
	}
}

// ClaimDue tags up to limit due records with a fresh claim token and returns them
// oldest send_at first. The conditional UPDATE re-checks the due predicate, so two
// dispatchers never claim the same row.
func (s *ReminderStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]models.ReminderRecord, error) {
	now = now.UTC()
	token := uuid.NewString()
	db := s.db.WithContext(ctx)

	due := db.Model(&models.ReminderRecord{}).
		Select("id").
		Scopes(dueScope(now, lease)).
		Order("send_at asc").
		Limit(limit)

	res := db.Model(&models.ReminderRecord{}).
		Where("id IN (?)", due).
		Scopes(dueScope(now, lease)).
		Updates(map[string]any{
			"claim_token": token,
			"claimed_at":  now,
			"status":      models.ReminderClaimed,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim due reminders: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var records []models.ReminderRecord
	if err := db.Where("claim_token = ? AND status = ?", token, models.ReminderClaimed).
		Order("send_at asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load claimed reminders: %w", err)
	}
	return records, nil
}

// UpdateReminder applies update to a record still held under claimToken. It reports
// false when the claim was lost, e.g. the appointment was cancelled mid-tick.
func (s *ReminderStore) UpdateReminder(ctx context.Context, id, claimToken string, update models.ReminderUpdate) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ReminderRecord{}).
		Where("id = ? AND claim_token = ? AND status = ?", id, claimToken, models.ReminderClaimed).
		Updates(update.Columns())
	if res.Error != nil {
		return false, fmt.Errorf("failed to update reminder %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func closeColumns(reason string, now time.Time) map[string]any {
	return map[string]any{
		"status":        models.ReminderClosed,
		"error_message": reason,
		"closed_at":     now.UTC(),
		"claim_token":   "",
		"claimed_at":    nil,
	}
}

// CloseByAppointment closes every open record of an appointment. Calling it again
// finds nothing to close.
func (s *ReminderStore) CloseByAppointment(ctx context.Context, tenantID, appointmentID, reason string, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.ReminderRecord{}).
		Where("tenant_id = ? AND appointment_id = ? AND status IN ?", tenantID, appointmentID,
			[]models.ReminderStatus{models.ReminderPending, models.ReminderClaimed}).
		Updates(closeColumns(reason, now))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to close reminders for appointment %s: %w", appointmentID, res.Error)
	}
	return res.RowsAffected, nil
}

// CloseStale closes pending records whose send_at is before sendBefore
func (s *ReminderStore) CloseStale(ctx context.Context, sendBefore time.Time, reason string, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.ReminderRecord{}).
		Where("status = ? AND send_at < ?", models.ReminderPending, sendBefore.UTC()).
		Updates(closeColumns(reason, now))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to close stale reminders: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListByAppointment returns every record of an appointment ordered by send_at
func (s *ReminderStore) ListByAppointment(ctx context.Context, tenantID, appointmentID string) ([]models.ReminderRecord, error) {
	var records []models.ReminderRecord
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND appointment_id = ?", tenantID, appointmentID).
		Order("send_at asc, created_at asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return records, nil
}

// GetAppointmentDetails reads an appointment with its customer, service, staff and
// tenant display data. It returns nil when the appointment does not exist.
func (s *ReminderStore) GetAppointmentDetails(ctx context.Context, appointmentID string) (*models.AppointmentDetails, error) {
	var details models.AppointmentDetails
	res := s.db.WithContext(ctx).
		Table("appointment AS a").
		Select(`a.id, a.tenant_id, a.customer_id, a.start_time, a.status,
			c.first_name AS customer_first_name, c.last_name AS customer_last_name,
			c.email AS customer_email, c.phone AS customer_phone,
			sv.name AS service_name,
			st.name AS staff_name, st.user_id AS staff_user_id,
			t.name AS business_name, t.timezone AS tenant_timezone`).
		Joins("LEFT JOIN customer AS c ON c.id = a.customer_id").
		Joins("LEFT JOIN service AS sv ON sv.id = a.service_id").
		Joins("LEFT JOIN staff_member AS st ON st.id = a.staff_id").
		Joins("LEFT JOIN tenant AS t ON t.id = a.tenant_id").
		Where("a.id = ?", appointmentID).
		Limit(1).
		Scan(&details)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load appointment %s: %w", appointmentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &details, nil
}

// GetSetting returns the enabled setting for a tenant and reminder type, or nil
func (s *ReminderStore) GetSetting(ctx context.Context, tenantID, reminderType string) (*models.ReminderSetting, error) {
	var setting models.ReminderSetting
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND reminder_type = ? AND enabled = ?", tenantID, reminderType, true).
		Order("id desc").
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder setting: %w", err)
	}
	return &setting, nil
}
