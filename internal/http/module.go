// Package http wires domain modules onto the shared gin engine. Modules
// implement the Module interface and register their own routes.
package http

import (
	"followup_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes. Keeping route registration
// inside each module keeps the router free of endpoint knowledge.
type Module interface {
	// Name identifies the module in startup logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints on the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is handed to every module during registration.
type RouterContext struct {
	// Engine is the root engine, for modules needing engine-level access.
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected is the authenticated group under /api/v1.
	Protected *gin.RouterGroup
	// Config exposes JWT settings to modules that build their own middleware.
	Config config.JWTConfig
	// AuthMiddleware is the shared token check for protected routes.
	AuthMiddleware gin.HandlerFunc
}
