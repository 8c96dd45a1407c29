package http

import (
	"context"

	"followup_backend/internal/events"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router actually reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs the readiness endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App carries the wired dependencies from the composition root into the
// router. main.go fills it, router.New consumes it.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
