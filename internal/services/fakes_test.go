package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bookwell/internal/models"

	"github.com/google/uuid"
)

// memStore is an in-memory ReminderStore with the same claim semantics as the
// gorm store
type memStore struct {
	mu           sync.Mutex
	records      map[string]*models.ReminderRecord
	appointments map[string]*models.AppointmentDetails
	settings     map[string]*models.ReminderSetting

	claimErr   error
	createErr  error
	settingErr error
	// onDetails runs before GetAppointmentDetails returns, outside the lock
	onDetails func(appointmentID string)
}

func newMemStore() *memStore {
	return &memStore{
		records:      map[string]*models.ReminderRecord{},
		appointments: map[string]*models.AppointmentDetails{},
		settings:     map[string]*models.ReminderSetting{},
	}
}

func (s *memStore) CreateReminders(_ context.Context, records []*models.ReminderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Status == "" {
			r.Status = models.ReminderPending
		}
		r.SendAt = r.SendAt.UTC()
		cp := *r
		s.records[r.ID] = &cp
	}
	return nil
}

func (s *memStore) due(r *models.ReminderRecord, now time.Time, lease time.Duration) bool {
	if r.IsDue(now) {
		return true
	}
	return r.Status == models.ReminderClaimed && r.ClaimedAt != nil && !r.ClaimedAt.After(now.Add(-lease))
}

func (s *memStore) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]models.ReminderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, s.claimErr
	}

	var due []*models.ReminderRecord
	for _, r := range s.records {
		if s.due(r, now, lease) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].SendAt.Before(due[j].SendAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	token := uuid.NewString()
	claimedAt := now.UTC()
	out := make([]models.ReminderRecord, 0, len(due))
	for _, r := range due {
		r.Status = models.ReminderClaimed
		r.ClaimToken = token
		r.ClaimedAt = &claimedAt
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) UpdateReminder(_ context.Context, id, claimToken string, update models.ReminderUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.Status != models.ReminderClaimed || r.ClaimToken != claimToken {
		return false, nil
	}
	update.Apply(r)
	return true, nil
}

func (s *memStore) closeWhere(match func(*models.ReminderRecord) bool, reason string, now time.Time) int64 {
	var n int64
	closedAt := now.UTC()
	for _, r := range s.records {
		if !match(r) {
			continue
		}
		r.Status = models.ReminderClosed
		r.ErrorMessage = reason
		r.ClosedAt = &closedAt
		r.ClaimToken = ""
		r.ClaimedAt = nil
		n++
	}
	return n
}

func (s *memStore) CloseByAppointment(_ context.Context, tenantID, appointmentID, reason string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeWhere(func(r *models.ReminderRecord) bool {
		return r.TenantID == tenantID && r.AppointmentID == appointmentID &&
			(r.Status == models.ReminderPending || r.Status == models.ReminderClaimed)
	}, reason, now), nil
}

func (s *memStore) CloseStale(_ context.Context, sendBefore time.Time, reason string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeWhere(func(r *models.ReminderRecord) bool {
		return r.Status == models.ReminderPending && r.SendAt.Before(sendBefore)
	}, reason, now), nil
}

func (s *memStore) ListByAppointment(_ context.Context, tenantID, appointmentID string) ([]models.ReminderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReminderRecord
	for _, r := range s.records {
		if r.TenantID == tenantID && r.AppointmentID == appointmentID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SendAt.Before(out[j].SendAt) })
	return out, nil
}

func (s *memStore) GetAppointmentDetails(_ context.Context, appointmentID string) (*models.AppointmentDetails, error) {
	if s.onDetails != nil {
		s.onDetails(appointmentID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.appointments[appointmentID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *memStore) GetSetting(_ context.Context, tenantID, reminderType string) (*models.ReminderSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settingErr != nil {
		return nil, s.settingErr
	}
	setting, ok := s.settings[tenantID+"/"+reminderType]
	if !ok || !setting.Enabled {
		return nil, nil
	}
	cp := *setting
	return &cp, nil
}

func (s *memStore) putSetting(tenantID string, setting *models.ReminderSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setting.TenantID = tenantID
	if setting.ReminderType == "" {
		setting.ReminderType = models.ReminderTypeUpcoming
	}
	s.settings[tenantID+"/"+setting.ReminderType] = setting
}

func (s *memStore) putAppointment(d *models.AppointmentDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[d.ID] = d
}

func (s *memStore) setAppointmentStatus(id string, status models.AppointmentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[id].Status = status
}

func (s *memStore) record(id string) models.ReminderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

func (s *memStore) all() []models.ReminderRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ReminderRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SendAt.Before(out[j].SendAt) })
	return out
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
	// panicWith makes SendEmail panic
	panicWith any
}

func (f *fakeEmail) SendEmail(_ context.Context, msg EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeSink struct {
	mu     sync.Mutex
	pushed []InAppNotification
}

func (f *fakeSink) Push(_ context.Context, n InAppNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, n)
}

type fakeGuard struct {
	mu        sync.Mutex
	delivered map[string]bool
	err       error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{delivered: map[string]bool{}}
}

func (g *fakeGuard) Delivered(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	return g.delivered[id], nil
}

func (g *fakeGuard) MarkDelivered(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.delivered[id] = true
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(now time.Time) *clock { return &clock{now: now} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

var errStoreDown = errors.New("store unavailable")

func testAppointment(id string, start time.Time) *models.AppointmentDetails {
	return &models.AppointmentDetails{
		ID:                id,
		TenantID:          "tenant-1",
		CustomerID:        "cust-1",
		StartTime:         start,
		Status:            models.AppointmentScheduled,
		CustomerFirstName: "Ada",
		CustomerLastName:  "Lovelace",
		CustomerEmail:     "ada@example.com",
		ServiceName:       "Balayage",
		StaffName:         "Grace",
		BusinessName:      "Shear Joy",
		TenantTimezone:    "UTC",
	}
}
