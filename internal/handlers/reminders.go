package handlers

import (
	"errors"
	"net/http"
	"time"

	"bookwell/internal/auth"
	"bookwell/internal/models"
	"bookwell/internal/services"

	"github.com/gin-gonic/gin"
)

// ScheduleRemindersRequest is the body of the schedule and reschedule endpoints
type ScheduleRemindersRequest struct {
	StartTime  time.Time `json:"start_time" binding:"required"`
	CustomerID string    `json:"customer_id"`
}

// ReminderHandler exposes the reminder lifecycle hooks over HTTP
type ReminderHandler struct {
	lifecycle  *services.ReminderLifecycle
	dispatcher services.DueDispatcher
}

// NewReminderHandler creates the reminder endpoints
func NewReminderHandler(lifecycle *services.ReminderLifecycle, dispatcher services.DueDispatcher) *ReminderHandler {
	return &ReminderHandler{lifecycle: lifecycle, dispatcher: dispatcher}
}

// Register mounts the tenant endpoints on a group guarded by AuthMiddleware and
// the cross-tenant dispatch trigger on one guarded by OpsMiddleware
func (h *ReminderHandler) Register(tenant, ops gin.IRoutes) {
	tenant.POST("/appointments/:appointment_id/reminders", h.Schedule)
	tenant.POST("/appointments/:appointment_id/reminders/cancel", h.Cancel)
	tenant.POST("/appointments/:appointment_id/reminders/reschedule", h.Reschedule)
	tenant.GET("/appointments/:appointment_id/reminders", h.List)
	ops.POST("/reminders/dispatch", h.Dispatch)
}

func (h *ReminderHandler) scheduleRequest(c *gin.Context) (services.ScheduleRequest, error) {
	var body ScheduleRemindersRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return services.ScheduleRequest{}, err
	}
	if body.StartTime.IsZero() {
		return services.ScheduleRequest{}, errors.New("start_time is required")
	}
	return services.ScheduleRequest{
		TenantID:      auth.TenantFromContext(c),
		AppointmentID: c.Param("appointment_id"),
		CustomerID:    body.CustomerID,
		StartTime:     body.StartTime,
	}, nil
}

func scheduleResponse(c *gin.Context, status int, result *services.ScheduleResult) {
	if result == nil {
		// scheduling never fails the appointment; the cause is in the logs
		c.JSON(http.StatusAccepted, gin.H{"scheduled": false, "reminders": []models.ReminderRecord{}})
		return
	}
	reminders := result.Records
	if reminders == nil {
		reminders = []*models.ReminderRecord{}
	}
	c.JSON(status, gin.H{
		"scheduled":   true,
		"reminders":   reminders,
		"in_app_sent": result.InAppSent,
	})
}

// Schedule handles POST /api/appointments/:appointment_id/reminders
func (h *ReminderHandler) Schedule(c *gin.Context) {
	req, err := h.scheduleRequest(c)
	if err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	scheduleResponse(c, http.StatusCreated, h.lifecycle.AppointmentCreated(c.Request.Context(), req))
}

// Cancel handles POST /api/appointments/:appointment_id/reminders/cancel
func (h *ReminderHandler) Cancel(c *gin.Context) {
	closed, err := h.lifecycle.Cancel(c.Request.Context(), auth.TenantFromContext(c), c.Param("appointment_id"))
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to cancel reminders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

// Reschedule handles POST /api/appointments/:appointment_id/reminders/reschedule
func (h *ReminderHandler) Reschedule(c *gin.Context) {
	req, err := h.scheduleRequest(c)
	if err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	result, err := h.lifecycle.Reschedule(c.Request.Context(), req)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to reschedule reminders", err)
		return
	}
	scheduleResponse(c, http.StatusOK, result)
}

// List handles GET /api/appointments/:appointment_id/reminders
func (h *ReminderHandler) List(c *gin.Context) {
	records, err := h.lifecycle.Reminders(c.Request.Context(), auth.TenantFromContext(c), c.Param("appointment_id"))
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to list reminders", err)
		return
	}
	if records == nil {
		records = []models.ReminderRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"reminders": records})
}

// Dispatch handles POST /api/reminders/dispatch by running one tick
func (h *ReminderHandler) Dispatch(c *gin.Context) {
	summary, err := h.dispatcher.DispatchDue(c.Request.Context())
	if err != nil {
		handleError(c, http.StatusServiceUnavailable, "Reminder store unavailable", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
