// Package handler exposes the followups module over HTTP.
package handler

import (
	"net/http"

	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/recovery"
	"followup_backend/internal/followups/service"
	"followup_backend/internal/followups/transport"
	"followup_backend/platform/httpkit"
	"followup_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for follow-up tasks, leads and recovery.
type Handler struct {
	tasks    *service.Service
	leads    *service.LeadDirectory
	recovery *recovery.Service
	val      *validator.Validator
}

// New creates a new followups handler.
func New(tasks *service.Service, leads *service.LeadDirectory, rec *recovery.Service, val *validator.Validator) *Handler {
	return &Handler{tasks: tasks, leads: leads, recovery: rec, val: val}
}

// RegisterTaskRoutes registers the task lifecycle routes.
func (h *Handler) RegisterTaskRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListTasks)
	rg.POST("", h.CreateTask)
	rg.GET("/:id", h.GetTask)
	rg.PATCH("/:id", h.UpdateTask)
	rg.POST("/:id/complete", h.CompleteTask)
	rg.POST("/:id/reschedule", h.RescheduleTask)
	rg.POST("/:id/snooze", h.SnoozeTask)
	rg.POST("/:id/cancel", h.CancelTask)
}

// RegisterLeadRoutes registers the minimal lead directory routes.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListLeads)
	rg.POST("", h.CreateLead)
	rg.GET("/:id", h.GetLead)
	rg.POST("/:id/recompute-follow-up", h.RecomputeFollowUp)
}

// RegisterRecoveryRoutes registers the recovery digest route.
func (h *Handler) RegisterRecoveryRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.RecoveryDigest)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// CreateTask handles POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req transport.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), identity.UserID(), service.CreateTaskParams{
		LeadID:     req.LeadID,
		Title:      req.Title,
		Type:       domain.TaskType(req.Type),
		Priority:   domain.TaskPriority(req.Priority),
		DueDate:    req.DueDate,
		ReminderAt: req.ReminderAt,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.NewTaskResponse(task))
}

// ListTasks handles GET /api/v1/tasks?leadId=...&status=...
func (h *Handler) ListTasks(c *gin.Context) {
	var req transport.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var status *domain.TaskStatus
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		status = &s
	}

	tasks, err := h.tasks.ListLeadTasks(c.Request.Context(), identity.UserID(), req.LeadID, status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewTaskResponses(tasks))
}

// GetTask handles GET /api/v1/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewTaskResponse(task))
}

// UpdateTask handles PATCH /api/v1/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	params := service.UpdateTaskParams{
		Title:   req.Title,
		DueDate: req.DueDate,
	}
	if req.Type != nil {
		taskType := domain.TaskType(*req.Type)
		params.Type = &taskType
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		params.Priority = &priority
	}
	if req.ReminderSet || req.ReminderAt != nil {
		params.ReminderAt = service.OptionalTime{Set: true, Value: req.ReminderAt}
	}

	task, err := h.tasks.Update(c.Request.Context(), identity.UserID(), id, params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewTaskResponse(task))
}

// CompleteTask handles POST /api/v1/tasks/:id/complete
func (h *Handler) CompleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.tasks.Complete(c.Request.Context(), identity.UserID(), id, service.CompleteParams{
		Outcome:        domain.TaskOutcome(req.Outcome),
		OutcomeNotes:   req.OutcomeNotes,
		CreateFollowUp: req.CreateFollowUp,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	response := gin.H{
		"task":       transport.NewTaskResponse(result.Task),
		"suggestion": result.Suggestion,
	}
	if result.FollowUp != nil {
		response["followUpTask"] = transport.NewTaskResponse(*result.FollowUp)
	}

	httpkit.OK(c, response)
}

// RescheduleTask handles POST /api/v1/tasks/:id/reschedule
func (h *Handler) RescheduleTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.RescheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	task, err := h.tasks.Reschedule(c.Request.Context(), identity.UserID(), id, req.DueDate, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewTaskResponse(task))
}

// SnoozeTask handles POST /api/v1/tasks/:id/snooze
func (h *Handler) SnoozeTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.SnoozeTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	task, err := h.tasks.Snooze(c.Request.Context(), identity.UserID(), id, req.Minutes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewTaskResponse(task))
}

// CancelTask handles POST /api/v1/tasks/:id/cancel
func (h *Handler) CancelTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	task, err := h.tasks.Cancel(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewTaskResponse(task))
}

// CreateLead handles POST /api/v1/leads
func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), identity.UserID(), service.CreateLeadParams{
		Name:           req.Name,
		Company:        req.Company,
		Phone:          req.Phone,
		Email:          req.Email,
		EstimatedValue: req.EstimatedValue,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.NewLeadResponse(lead))
}

// ListLeads handles GET /api/v1/leads
func (h *Handler) ListLeads(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leads, err := h.leads.ListLeads(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewLeadResponses(leads))
}

// GetLead handles GET /api/v1/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	lead, err := h.leads.GetLead(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewLeadResponse(lead))
}

// RecomputeFollowUp handles POST /api/v1/leads/:id/recompute-follow-up.
// Repair endpoint: rebuilds the lead's derived next-follow-up timestamp.
func (h *Handler) RecomputeFollowUp(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	next, err := h.tasks.RecomputeNextFollowUp(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"nextFollowUpAt": next})
}

// RecoveryDigest handles GET /api/v1/recovery
func (h *Handler) RecoveryDigest(c *gin.Context) {
	var req transport.RecoveryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	digest, err := h.recovery.BuildDigest(c.Request.Context(), identity.UserID(), req.TopN)
	if httpkit.HandleError(c, err) {
		return
	}

	if req.Notify {
		h.recovery.NotifyDigest(c.Request.Context(), identity.UserID(), digest)
	}

	httpkit.OK(c, digest)
}
