package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bookwell/internal/models"
)

// ScheduleRequest identifies the appointment reminders are scheduled for
type ScheduleRequest struct {
	TenantID      string    `json:"tenant_id"`
	AppointmentID string    `json:"appointment_id"`
	CustomerID    string    `json:"customer_id"`
	StartTime     time.Time `json:"start_time"`
}

// ScheduleResult describes what Schedule did
type ScheduleResult struct {
	Records     []*models.ReminderRecord `json:"records"`
	InAppSent   bool                     `json:"in_app_sent"`
	UsedDefault bool                     `json:"used_default"`
}

// ReminderScheduler turns a new or moved appointment into pending reminder records
type ReminderScheduler struct {
	store   ReminderStore
	inApp   NotificationSink
	metrics *Metrics
}

// NewReminderScheduler creates a scheduler. inApp and metrics may be nil.
func NewReminderScheduler(store ReminderStore, inApp NotificationSink, metrics *Metrics) *ReminderScheduler {
	return &ReminderScheduler{
		store:   store,
		inApp:   inApp,
		metrics: metrics,
	}
}

// Schedule writes one pending record per timing and deferred channel. In-app
// channels get a single immediate notice instead of records and SMS is skipped.
// Timings already past are still written and go out on the next dispatch tick.
func (s *ReminderScheduler) Schedule(ctx context.Context, req ScheduleRequest) (*ScheduleResult, error) {
	if req.TenantID == "" || req.AppointmentID == "" {
		return nil, errors.New("tenant and appointment id are required")
	}
	if req.StartTime.IsZero() {
		return nil, errors.New("appointment start time is required")
	}

	setting, err := s.store.GetSetting(ctx, req.TenantID, models.ReminderTypeUpcoming)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder setting: %w", err)
	}

	result := &ScheduleResult{}
	timings := ResolveTimings(setting)
	channels := []models.ReminderMethod{models.MethodEmail}
	if setting == nil {
		result.UsedDefault = true
	} else {
		channels = ParseChannels(setting.Channels)
	}

	wantInApp := false
	for _, hours := range timings {
		sendAt := SendAtForHours(req.StartTime, hours)
		for _, channel := range channels {
			switch channel {
			case models.MethodInApp:
				wantInApp = true
			case models.MethodSMS:
				// SMS transport is out of service; nothing is persisted
			default:
				result.Records = append(result.Records, &models.ReminderRecord{
					TenantID:      req.TenantID,
					AppointmentID: req.AppointmentID,
					ReminderType:  models.ReminderTypeUpcoming,
					SendAt:        sendAt.UTC(),
					Method:        channel,
					Status:        models.ReminderPending,
				})
			}
		}
	}

	if err := s.store.CreateReminders(ctx, result.Records); err != nil {
		return nil, err
	}
	for _, r := range result.Records {
		s.metrics.observeScheduled(string(r.Method), 1)
	}

	if wantInApp && s.inApp != nil {
		s.inApp.Push(ctx, s.inAppNotice(req, timings))
		result.InAppSent = true
		s.metrics.observeScheduled(string(models.MethodInApp), 1)
	}

	log.Printf("reminder scheduler: appointment %s (tenant %s): %d reminders scheduled",
		req.AppointmentID, req.TenantID, len(result.Records))
	return result, nil
}

func (s *ReminderScheduler) inAppNotice(req ScheduleRequest, timings []float64) InAppNotification {
	labels := make([]string, 0, len(timings))
	for _, h := range timings {
		labels = append(labels, TimingLabelFromHours(h))
	}
	return InAppNotification{
		TenantID: req.TenantID,
		UserID:   req.CustomerID,
		Type:     "reminder",
		Category: "appointment",
		Title:    "Appointment reminders scheduled",
		Message: fmt.Sprintf("Reminders will go out %s before the appointment on %s.",
			strings.Join(labels, ", "), req.StartTime.UTC().Format("Jan 2, 2006 15:04 MST")),
		Data: map[string]any{
			"appointment_id": req.AppointmentID,
			"customer_id":    req.CustomerID,
			"start_time":     req.StartTime.UTC(),
			"timings":        labels,
		},
		Link: "/appointments/" + req.AppointmentID,
		Icon: "bell",
	}
}

// ParseChannels reads a setting's channel list, stored either as a JSON array or as
// a JSON string holding one. Missing or malformed lists mean email only.
func ParseChannels(raw []byte) []models.ReminderMethod {
	fallback := []models.ReminderMethod{models.MethodEmail}
	if len(raw) == 0 {
		return fallback
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return fallback
		}
		if err := json.Unmarshal([]byte(encoded), &names); err != nil {
			return fallback
		}
	}

	seen := make(map[models.ReminderMethod]bool, len(names))
	channels := make([]models.ReminderMethod, 0, len(names))
	for _, name := range names {
		method := models.ReminderMethod(strings.ToLower(strings.TrimSpace(name)))
		if method == "" || seen[method] {
			continue
		}
		seen[method] = true
		channels = append(channels, method)
	}
	if len(channels) == 0 {
		return fallback
	}
	return channels
}
