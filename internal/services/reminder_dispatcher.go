package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookwell/internal/models"
)

// Defaults applied when DispatcherConfig leaves a field zero
const (
	DefaultDispatchBatchSize = 50
	DefaultClaimLease        = 10 * time.Minute
)

const (
	reasonSMSDisabled = "SMS disabled"
	reasonExpired     = "Reminder expired"
	reasonNoRecipient = "Customer has no email address"
	reasonMissingAppt = "Appointment not found"
)

// outcome is the result of processing one claimed record
type outcome string

const (
	outcomeSent      outcome = "sent"
	outcomeRetry     outcome = "retry"
	outcomeFailed    outcome = "failed"
	outcomeClosed    outcome = "closed"
	outcomeDuplicate outcome = "duplicate"
)

// DispatchSummary counts what one dispatch tick did
type DispatchSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

func (s *DispatchSummary) add(o outcome) {
	s.Processed++
	switch o {
	case outcomeSent:
		s.Sent++
	case outcomeRetry, outcomeFailed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// DispatcherConfig tunes a dispatch tick
type DispatcherConfig struct {
	BatchSize  int
	ClaimLease time.Duration
	// StaleAfter closes pending records this far past send_at. Zero disables it.
	StaleAfter time.Duration
}

// ReminderDispatcher delivers due reminder records
type ReminderDispatcher struct {
	store   ReminderStore
	email   EmailSender
	guard   SendGuard
	metrics *Metrics
	cfg     DispatcherConfig
	now     func() time.Time
}

// NewReminderDispatcher creates a dispatcher. guard and metrics may be nil.
func NewReminderDispatcher(store ReminderStore, email EmailSender, guard SendGuard, metrics *Metrics, cfg DispatcherConfig) *ReminderDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultDispatchBatchSize
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = DefaultClaimLease
	}
	return &ReminderDispatcher{
		store:   store,
		email:   email,
		guard:   guard,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// DispatchDue claims one batch of due records and processes them in send_at order.
// Per-record failures are recorded on the record; only a failure to claim aborts
// the tick.
func (d *ReminderDispatcher) DispatchDue(ctx context.Context) (summary DispatchSummary, err error) {
	started := time.Now()
	defer func() { d.metrics.observeTick(started, err) }()

	now := d.now()
	if d.cfg.StaleAfter > 0 {
		closed, err := d.store.CloseStale(ctx, now.Add(-d.cfg.StaleAfter), reasonExpired, now)
		if err != nil {
			log.Printf("reminder dispatcher: failed to close stale reminders: %v", err)
		} else if closed > 0 {
			log.Printf("reminder dispatcher: closed %d stale reminders", closed)
		}
	}

	records, err := d.store.ClaimDue(ctx, now, d.cfg.ClaimLease, d.cfg.BatchSize)
	if err != nil {
		return summary, fmt.Errorf("failed to claim due reminders: %w", err)
	}

	for i := range records {
		if ctx.Err() != nil {
			// unprocessed claims expire with the lease and are picked up again
			log.Printf("reminder dispatcher: stopping with %d claimed reminders left", len(records)-i)
			break
		}
		o := d.process(ctx, records[i])
		summary.add(o)
		d.metrics.observeOutcome(o)
	}
	return summary, nil
}

func (d *ReminderDispatcher) process(ctx context.Context, rec models.ReminderRecord) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("reminder dispatcher: panic processing reminder %s: %v", rec.ID, r)
			o = d.fail(ctx, rec, fmt.Sprintf("panic: %v", r))
		}
	}()

	details, err := d.store.GetAppointmentDetails(ctx, rec.AppointmentID)
	if err != nil {
		return d.fail(ctx, rec, err.Error())
	}
	if details == nil || details.TenantID != rec.TenantID {
		return d.closeRecord(ctx, rec, reasonMissingAppt)
	}
	if !details.Status.AcceptsReminders() {
		return d.closeRecord(ctx, rec, fmt.Sprintf("Appointment %s", details.Status))
	}

	switch rec.Method {
	case models.MethodEmail:
		return d.sendEmail(ctx, rec, details)
	case models.MethodSMS:
		return d.closeRecord(ctx, rec, reasonSMSDisabled)
	default:
		return d.fail(ctx, rec, fmt.Sprintf("Unknown reminder method: %s", rec.Method))
	}
}

func (d *ReminderDispatcher) sendEmail(ctx context.Context, rec models.ReminderRecord, details *models.AppointmentDetails) outcome {
	if d.guard != nil {
		delivered, err := d.guard.Delivered(ctx, rec.ID)
		if err != nil {
			log.Printf("reminder dispatcher: send guard unavailable for %s: %v", rec.ID, err)
		} else if delivered {
			sentAt := d.now()
			d.update(ctx, rec, models.ReminderUpdate{Status: models.ReminderSent, SentAt: &sentAt})
			return outcomeDuplicate
		}
	}

	if details.CustomerEmail == "" {
		return d.fail(ctx, rec, reasonNoRecipient)
	}

	subject, body := DefaultReminderSubject, DefaultReminderBody
	setting, err := d.store.GetSetting(ctx, rec.TenantID, rec.ReminderType)
	if err != nil {
		log.Printf("reminder dispatcher: using default template for %s: %v", rec.ID, err)
	} else if setting != nil {
		if setting.SubjectTemplate != "" {
			subject = setting.SubjectTemplate
		}
		if setting.BodyTemplate != "" {
			body = setting.BodyTemplate
		}
	}

	data := NewTemplateData(details, rec.SendAt)
	text := RenderTemplate(body, data)
	html, err := RenderEmailHTML(text, data)
	if err != nil {
		return d.fail(ctx, rec, err.Error())
	}

	err = d.email.SendEmail(ctx, EmailMessage{
		To:       details.CustomerEmail,
		ToName:   details.CustomerName(),
		Subject:  RenderTemplate(subject, data),
		Text:     text,
		HTML:     html,
		TenantID: rec.TenantID,
	})
	if err != nil {
		return d.fail(ctx, rec, err.Error())
	}

	if d.guard != nil {
		if err := d.guard.MarkDelivered(ctx, rec.ID); err != nil {
			log.Printf("reminder dispatcher: failed to mark %s delivered: %v", rec.ID, err)
		}
	}
	sentAt := d.now()
	d.update(ctx, rec, models.ReminderUpdate{Status: models.ReminderSent, SentAt: &sentAt})
	return outcomeSent
}

func (d *ReminderDispatcher) closeRecord(ctx context.Context, rec models.ReminderRecord, reason string) outcome {
	now := d.now()
	d.update(ctx, rec, models.ReminderUpdate{Status: models.ReminderClosed, ClosedAt: &now, ErrorMessage: &reason})
	return outcomeClosed
}

func (d *ReminderDispatcher) fail(ctx context.Context, rec models.ReminderRecord, reason string) outcome {
	now := d.now()
	decision := NextAttempt(rec.RetryCount, now)
	d.update(ctx, rec, decision.Update(reason, now))
	if decision.Status == models.ReminderFailed {
		log.Printf("reminder dispatcher: reminder %s failed after %d attempts: %s", rec.ID, decision.RetryCount, reason)
		return outcomeFailed
	}
	log.Printf("reminder dispatcher: reminder %s attempt %d failed, retrying at %s: %s",
		rec.ID, decision.RetryCount, decision.NextRetryAt.UTC().Format(time.RFC3339), reason)
	return outcomeRetry
}

func (d *ReminderDispatcher) update(ctx context.Context, rec models.ReminderRecord, update models.ReminderUpdate) {
	ok, err := d.store.UpdateReminder(ctx, rec.ID, rec.ClaimToken, update)
	if err != nil {
		log.Printf("reminder dispatcher: failed to store %s for reminder %s: %v", update.Status, rec.ID, err)
		return
	}
	if !ok {
		log.Printf("reminder dispatcher: reminder %s was closed while dispatching, %s not stored", rec.ID, update.Status)
	}
}
