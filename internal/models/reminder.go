package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReminderTypeUpcoming is the reminder type sent ahead of a booked appointment
const ReminderTypeUpcoming = "appointment_upcoming"

// ReminderStatus is the delivery state of a reminder record
type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending" // waiting for send_at / next_retry_at
	ReminderClaimed ReminderStatus = "claimed" // held by a running dispatch tick
	ReminderSent    ReminderStatus = "sent"    // delivered
	ReminderClosed  ReminderStatus = "closed"  // closed without delivery (cancelled, stale, channel disabled)
	ReminderFailed  ReminderStatus = "failed"  // retries exhausted
)

// Terminal reports whether no further transition is possible from s
func (s ReminderStatus) Terminal() bool {
	return s == ReminderSent || s == ReminderClosed || s == ReminderFailed
}

// ReminderMethod is the delivery channel of a reminder
type ReminderMethod string

const (
	MethodEmail ReminderMethod = "email"
	MethodSMS   ReminderMethod = "sms"
	MethodInApp ReminderMethod = "in_app"
)

// ReminderSetting is a tenant's reminder policy for one reminder type
type ReminderSetting struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	TenantID        string         `gorm:"size:36;not null;index:idx_setting_tenant_type" json:"tenant_id"`
	ReminderType    string         `gorm:"size:50;not null;index:idx_setting_tenant_type" json:"reminder_type"`
	Enabled         bool           `gorm:"not null" json:"enabled"`
	Channels        datatypes.JSON `gorm:"type:jsonb" json:"channels"`
	HoursBefore     *float64       `json:"hours_before"`
	TimingOptions   datatypes.JSON `gorm:"type:jsonb" json:"timing_options"`
	SubjectTemplate string         `gorm:"type:text" json:"subject_template"`
	BodyTemplate    string         `gorm:"type:text" json:"body_template"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the ReminderSetting model
func (ReminderSetting) TableName() string {
	return "reminder_setting"
}

// ReminderRecord is one scheduled notification for one appointment over one channel
type ReminderRecord struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	TenantID      string         `gorm:"size:36;not null;index" json:"tenant_id"`
	AppointmentID string         `gorm:"size:36;not null;index" json:"appointment_id"`
	ReminderType  string         `gorm:"size:50;not null" json:"reminder_type"`
	SendAt        time.Time      `gorm:"not null;index:idx_reminder_due" json:"send_at"`
	Method        ReminderMethod `gorm:"size:20;not null" json:"method"`
	Status        ReminderStatus `gorm:"size:20;not null;default:'pending';index:idx_reminder_due" json:"status"`
	RetryCount    int            `gorm:"not null;default:0" json:"retry_count"`
	NextRetryAt   *time.Time     `json:"next_retry_at"`
	ClaimToken    string         `gorm:"size:36;index" json:"-"`
	ClaimedAt     *time.Time     `json:"-"`
	SentAt        *time.Time     `json:"sent_at"`
	ClosedAt      *time.Time     `json:"closed_at"`
	LastErrorAt   *time.Time     `json:"last_error_at"`
	ErrorMessage  string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the ReminderRecord model
func (ReminderRecord) TableName() string {
	return "reminder_record"
}

// BeforeCreate assigns an id and defaults for new records
func (r *ReminderRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = ReminderPending
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	return nil
}

// IsDue reports whether the record matches the due predicate at now
func (r *ReminderRecord) IsDue(now time.Time) bool {
	if r.Status != ReminderPending || r.SendAt.After(now) {
		return false
	}
	return r.NextRetryAt == nil || !r.NextRetryAt.After(now)
}

// ReminderUpdate is a state transition applied to a claimed record.
// Nil pointer fields are left untouched.
type ReminderUpdate struct {
	Status         ReminderStatus
	RetryCount     *int
	NextRetryAt    *time.Time
	ClearNextRetry bool
	SentAt         *time.Time
	ClosedAt       *time.Time
	LastErrorAt    *time.Time
	ErrorMessage   *string
}

// Columns returns the column map for a gorm Updates call
func (u ReminderUpdate) Columns() map[string]any {
	cols := map[string]any{
		"status":      u.Status,
		"claim_token": "",
		"claimed_at":  nil,
	}
	if u.RetryCount != nil {
		cols["retry_count"] = *u.RetryCount
	}
	if u.ClearNextRetry {
		cols["next_retry_at"] = nil
	} else if u.NextRetryAt != nil {
		cols["next_retry_at"] = u.NextRetryAt.UTC()
	}
	if u.SentAt != nil {
		cols["sent_at"] = u.SentAt.UTC()
	}
	if u.ClosedAt != nil {
		cols["closed_at"] = u.ClosedAt.UTC()
	}
	if u.LastErrorAt != nil {
		cols["last_error_at"] = u.LastErrorAt.UTC()
	}
	if u.ErrorMessage != nil {
		cols["error_message"] = *u.ErrorMessage
	}
	return cols
}

// Apply mutates r in memory the way Columns mutates the stored row
func (u ReminderUpdate) Apply(r *ReminderRecord) {
	r.Status = u.Status
	r.ClaimToken = ""
	r.ClaimedAt = nil
	if u.RetryCount != nil {
		r.RetryCount = *u.RetryCount
	}
	if u.ClearNextRetry {
		r.NextRetryAt = nil
	} else if u.NextRetryAt != nil {
		t := u.NextRetryAt.UTC()
		r.NextRetryAt = &t
	}
	if u.SentAt != nil {
		t := u.SentAt.UTC()
		r.SentAt = &t
	}
	if u.ClosedAt != nil {
		t := u.ClosedAt.UTC()
		r.ClosedAt = &t
	}
	if u.LastErrorAt != nil {
		t := u.LastErrorAt.UTC()
		r.LastErrorAt = &t
	}
	if u.ErrorMessage != nil {
		r.ErrorMessage = *u.ErrorMessage
	}
}
