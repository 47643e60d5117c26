package services

import (
	"time"

	"bookwell/internal/models"
)

// MaxReminderAttempts is the number of failed sends after which a reminder is given up
const MaxReminderAttempts = 3

// retryBackoff is indexed by retry count minus one and saturates at its last entry
var retryBackoff = []time.Duration{
	5 * time.Minute,
	15 * time.Minute,
	60 * time.Minute,
}

// RetryDecision is the outcome of one failed send
type RetryDecision struct {
	RetryCount  int
	Status      models.ReminderStatus
	NextRetryAt *time.Time
}

// Backoff returns the delay before the attempt following the retryCount-th failure
func Backoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > len(retryBackoff) {
		return retryBackoff[len(retryBackoff)-1]
	}
	return retryBackoff[retryCount-1]
}

// NextAttempt decides what happens to a record that has failed retryCount times
// before this failure
func NextAttempt(retryCount int, now time.Time) RetryDecision {
	count := retryCount + 1
	if count >= MaxReminderAttempts {
		return RetryDecision{RetryCount: count, Status: models.ReminderFailed}
	}
	next := now.Add(Backoff(count))
	return RetryDecision{RetryCount: count, Status: models.ReminderPending, NextRetryAt: &next}
}

// Update turns the decision into a stored transition carrying the failure reason
func (d RetryDecision) Update(reason string, now time.Time) models.ReminderUpdate {
	return models.ReminderUpdate{
		Status:         d.Status,
		RetryCount:     &d.RetryCount,
		NextRetryAt:    d.NextRetryAt,
		ClearNextRetry: d.NextRetryAt == nil,
		LastErrorAt:    &now,
		ErrorMessage:   &reason,
	}
}
