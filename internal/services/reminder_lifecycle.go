package services

import (
	"context"
	"log"
	"time"

	"bookwell/internal/models"
)

const (
	reasonCancelled   = "Appointment cancelled"
	reasonRescheduled = "Appointment rescheduled"
)

// ReminderLifecycle keeps reminder records in step with appointment changes
type ReminderLifecycle struct {
	scheduler *ReminderScheduler
	store     ReminderStore
	now       func() time.Time
}

// NewReminderLifecycle creates the appointment hooks
func NewReminderLifecycle(scheduler *ReminderScheduler, store ReminderStore) *ReminderLifecycle {
	return &ReminderLifecycle{scheduler: scheduler, store: store, now: time.Now}
}

// AppointmentCreated schedules reminders for a new appointment. Scheduling problems
// are logged and never fail the booking.
func (l *ReminderLifecycle) AppointmentCreated(ctx context.Context, req ScheduleRequest) *ScheduleResult {
	result, err := l.scheduler.Schedule(ctx, req)
	if err != nil {
		log.Printf("reminders: failed to schedule for appointment %s (tenant %s): %v", req.AppointmentID, req.TenantID, err)
		return nil
	}
	return result
}

// Cancel closes every open reminder of an appointment and returns how many it closed
func (l *ReminderLifecycle) Cancel(ctx context.Context, tenantID, appointmentID string) (int64, error) {
	return l.closeOpen(ctx, tenantID, appointmentID, reasonCancelled)
}

// Reschedule closes the open reminders of a moved appointment and schedules new ones
// against its new start time
func (l *ReminderLifecycle) Reschedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	if _, err := l.closeOpen(ctx, req.TenantID, req.AppointmentID, reasonRescheduled); err != nil {
		return nil, err
	}
	return l.AppointmentCreated(ctx, req), nil
}

// Reminders lists the records of an appointment
func (l *ReminderLifecycle) Reminders(ctx context.Context, tenantID, appointmentID string) ([]models.ReminderRecord, error) {
	return l.store.ListByAppointment(ctx, tenantID, appointmentID)
}

func (l *ReminderLifecycle) closeOpen(ctx context.Context, tenantID, appointmentID, reason string) (int64, error) {
	closed, err := l.store.CloseByAppointment(ctx, tenantID, appointmentID, reason, l.now())
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		log.Printf("reminders: closed %d reminders for appointment %s: %s", closed, appointmentID, reason)
	}
	return closed, nil
}
