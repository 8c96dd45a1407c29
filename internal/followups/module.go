// Package followups provides the follow-up task domain module.
package followups

import (
	"followup_backend/internal/events"
	"followup_backend/internal/followups/handler"
	"followup_backend/internal/followups/recovery"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/service"
	apphttp "followup_backend/internal/http"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"
	"followup_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the followups domain module.
type Module struct {
	handler  *handler.Handler
	Service  *service.Service
	Recovery *recovery.Service
}

// NewModule creates a new followups module with all dependencies wired.
// sched may be nil when no reminder backend is configured; reminders are
// then recorded without jobs.
func NewModule(pool *pgxpool.Pool, sched service.ReminderScheduler, bus events.Bus, cfg config.FollowUpConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, sched, bus, cfg, log)
	rec := recovery.New(repo, cfg, bus, log)
	leads := service.NewLeadDirectory(repo)
	h := handler.New(svc, leads, rec, val)

	return &Module{
		handler:  h,
		Service:  svc,
		Recovery: rec,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "followups"
}

// RegisterRoutes mounts the task, lead and recovery routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterTaskRoutes(ctx.Protected.Group("/tasks"))
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterRecoveryRoutes(ctx.Protected.Group("/recovery"))
}

var _ apphttp.Module = (*Module)(nil)
