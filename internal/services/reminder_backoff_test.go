package services

import (
	"testing"
	"time"

	"bookwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Backoff(1))
	assert.Equal(t, 15*time.Minute, Backoff(2))
	assert.Equal(t, 60*time.Minute, Backoff(3))
	assert.Equal(t, 60*time.Minute, Backoff(10), "saturates")
	assert.Equal(t, 5*time.Minute, Backoff(0))
}

func TestNextAttempt_Progression(t *testing.T) {
	now := time.Date(2025, 6, 9, 15, 0, 0, 0, time.UTC)

	first := NextAttempt(0, now)
	assert.Equal(t, 1, first.RetryCount)
	assert.Equal(t, models.ReminderPending, first.Status)
	require.NotNil(t, first.NextRetryAt)
	assert.Equal(t, now.Add(5*time.Minute), *first.NextRetryAt)

	second := NextAttempt(first.RetryCount, now)
	assert.Equal(t, 2, second.RetryCount)
	assert.Equal(t, models.ReminderPending, second.Status)
	require.NotNil(t, second.NextRetryAt)
	assert.Equal(t, now.Add(15*time.Minute), *second.NextRetryAt)

	third := NextAttempt(second.RetryCount, now)
	assert.Equal(t, 3, third.RetryCount)
	assert.Equal(t, models.ReminderFailed, third.Status)
	assert.Nil(t, third.NextRetryAt)
}

func TestRetryDecision_Update(t *testing.T) {
	now := time.Date(2025, 6, 9, 15, 0, 0, 0, time.UTC)

	u := NextAttempt(0, now).Update("smtp down", now)
	assert.Equal(t, models.ReminderPending, u.Status)
	assert.Equal(t, 1, *u.RetryCount)
	assert.False(t, u.ClearNextRetry)
	assert.Equal(t, "smtp down", *u.ErrorMessage)
	assert.Equal(t, now, *u.LastErrorAt)

	u = NextAttempt(2, now).Update("smtp down", now)
	assert.Equal(t, models.ReminderFailed, u.Status)
	assert.True(t, u.ClearNextRetry)
}
