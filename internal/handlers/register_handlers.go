package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/harborlend/loancrm/cmd/docs"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
	"github.com/harborlend/loancrm/internal/middleware"
	"github.com/harborlend/loancrm/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// through the service container. The users argument backs the auth
// middleware's per-request account lookup.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	users middleware.UserLoader,
) {

	// Health check for load balancers and container probes.
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Public authentication routes sit outside the v1 auth wall.
	registerAuthRoutes(r, services.Auth)

	setupAPIV1Routes(r, cfg, services, users)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the
// per-resource route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	users middleware.UserLoader,
) {
	// The whole v1 group requires a valid bearer token.
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret, users))

	registerUserRoutes(v1, services.User)
	registerLoanRoutes(v1, services.Loan)
	registerTaskRoutes(v1, services.Task)
	registerDocumentRoutes(v1, services.Document, cfg.MaxUploadBytes)
	registerCommunicationRoutes(v1, services.Communication)
	registerNotificationRoutes(v1, services.Notification)
	registerAppointmentRoutes(v1, services.Appointment)
	registerDashboardRoutes(v1, services.Dashboard)

	// Lead routes depend on the upstream contact connector; without an API
	// key there is no client and the routes stay unmounted.
	if services.Lead != nil {
		registerLeadRoutes(v1, services.Lead)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
