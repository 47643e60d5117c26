package models

import (
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// AcceptsReminders reports whether reminders for an appointment in this status may still go out
func (s AppointmentStatus) AcceptsReminders() bool {
	switch s {
	case AppointmentCancelled, AppointmentCompleted, AppointmentNoShow:
		return false
	}
	return true
}

// Tenant is a business using the platform
type Tenant struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Timezone  string    `gorm:"size:64" json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer is a client of a tenant
type Customer struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	TenantID  string `gorm:"size:36;not null;index" json:"tenant_id"`
	FirstName string `gorm:"size:100" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:255" json:"email"`
	Phone     string `gorm:"size:50" json:"phone"`
}

// Service is something a tenant sells, e.g. a haircut
type Service struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	TenantID string `gorm:"size:36;not null;index" json:"tenant_id"`
	Name     string `gorm:"size:255;not null" json:"name"`
}

// StaffMember performs appointments
type StaffMember struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	TenantID string `gorm:"size:36;not null;index" json:"tenant_id"`
	UserID   string `gorm:"size:36" json:"user_id"`
	Name     string `gorm:"size:255;not null" json:"name"`
}

// Appointment is a booked slot
type Appointment struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	TenantID   string            `gorm:"size:36;not null;index" json:"tenant_id"`
	CustomerID string            `gorm:"size:36;index" json:"customer_id"`
	ServiceID  string            `gorm:"size:36" json:"service_id"`
	StaffID    string            `gorm:"size:36" json:"staff_id"`
	StartTime  time.Time         `gorm:"not null" json:"start_time"`
	Status     AppointmentStatus `gorm:"size:20;not null;default:'scheduled'" json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (Tenant) TableName() string      { return "tenant" }
func (Customer) TableName() string    { return "customer" }
func (Service) TableName() string     { return "service" }
func (StaffMember) TableName() string { return "staff_member" }
func (Appointment) TableName() string { return "appointment" }

// AppointmentDetails is an appointment joined with the display data a reminder needs
type AppointmentDetails struct {
	ID                string
	TenantID          string
	CustomerID        string
	StartTime         time.Time
	Status            AppointmentStatus
	CustomerFirstName string
	CustomerLastName  string
	CustomerEmail     string
	CustomerPhone     string
	ServiceName       string
	StaffName         string
	StaffUserID       string
	BusinessName      string
	TenantTimezone    string
}

// CustomerName returns the customer's full name, or "" when unknown
func (d *AppointmentDetails) CustomerName() string {
	return strings.TrimSpace(d.CustomerFirstName + " " + d.CustomerLastName)
}

// Location returns the tenant's time zone, UTC when unset or unknown
func (d *AppointmentDetails) Location() *time.Location {
	if d.TenantTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(d.TenantTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
