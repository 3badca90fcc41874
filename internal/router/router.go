// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
	"k8s.io/utils/clock"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/handlers"
	"github.com/javajoker/firenoc-backend/internal/middleware"
	"github.com/javajoker/firenoc-backend/internal/models"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/utils"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the HTTP surface is built from.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Services services.Deps
	Runner   handlers.SweepRunner
	Inbox    handlers.Inbox
	Hub      *notify.Hub
	Gatherer prometheus.Gatherer
	Clock    clock.PassiveClock
	// Checks are probed by /health, keyed by component name.
	Checks map[string]HealthCheck
}

func Initialize(deps Deps) *gin.Engine {
	cfg := deps.Config

	// Initialize services
	applicationService := services.NewApplicationService(deps.Services)
	inspectionService := services.NewInspectionService(deps.Services)
	nocService := services.NewNOCService(deps.Services)
	licenseService := services.NewLicenseService(deps.Services)
	sweeperService := services.NewSweeperService(deps.Services)
	userService := services.NewUserService(deps.Services.Store)
	adminService := services.NewAdminService(deps.DB)

	// Initialize handlers
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	inspectionHandler := handlers.NewInspectionHandler(inspectionService)
	nocHandler := handlers.NewNOCHandler(nocService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	userHandler := handlers.NewUserHandler(userService)
	notificationHandler := handlers.NewNotificationHandler(deps.Inbox, deps.Hub, deps.Clock)
	adminHandler := handlers.NewAdminHandler(adminService, sweeperService, deps.Runner, deps.Clock, cfg.Workflow.LicenseRenewalReminderDays)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())
	if deps.DB != nil {
		r.Use(middleware.AuditLogMiddleware(deps.DB))
	}

	// Health check
	r.GET("/health", healthHandler(deps.Checks))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Public license verification
		v1.GET("/verify/licenses/:id", middleware.VerifyRateLimit(), licenseHandler.VerifyLicense)

		authed := v1.Group("")
		authed.Use(middleware.AuthRequired())

		authed.GET("/ws", notificationHandler.Subscribe)

		// User routes
		users := authed.Group("/users")
		{
			users.GET("/me", userHandler.GetProfile)
			users.GET("/inspectors/workload", middleware.StaffRequired(), userHandler.GetInspectorWorkloads)

			managed := users.Group("")
			managed.Use(middleware.AdminRequired())
			{
				managed.POST("", userHandler.CreateUser)
				managed.GET("", userHandler.GetUsers)
				managed.GET("/:id", userHandler.GetUser)
				managed.PUT("/:id", userHandler.UpdateUser)
			}
		}

		// Application routes
		applications := authed.Group("/applications")
		{
			applications.POST("", middleware.RoleRequired(models.UserRoleCitizen), applicationHandler.CreateApplication)
			applications.GET("", applicationHandler.GetApplications)
			applications.GET("/:id", applicationHandler.GetApplication)

			staff := applications.Group("")
			staff.Use(middleware.StaffRequired())
			{
				staff.PUT("/:id/status", applicationHandler.UpdateStatus)
				staff.PUT("/:id/follow-up", applicationHandler.UpdateFollowUp)
			}

			admin := applications.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.PUT("/:id/assign", applicationHandler.AssignApplication)
				admin.POST("/:id/auto-assign", applicationHandler.AutoAssign)
				admin.DELETE("/:id", applicationHandler.DeleteApplication)
			}
		}

		// Inspection routes
		inspections := authed.Group("/inspections")
		inspections.Use(middleware.StaffRequired())
		{
			inspections.POST("", inspectionHandler.ScheduleInspection)
			inspections.GET("", inspectionHandler.GetInspections)
			inspections.GET("/:id", inspectionHandler.GetInspection)
			inspections.PUT("/:id", inspectionHandler.UpdateInspection)
			inspections.PUT("/:id/reschedule", inspectionHandler.RescheduleInspection)
		}

		// NOC routes
		nocs := authed.Group("/nocs")
		{
			nocs.GET("", nocHandler.GetNOCs)
			nocs.GET("/:id", nocHandler.GetNOC)

			admin := nocs.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.POST("", nocHandler.IssueNOC)
				admin.PUT("/:id/revoke", nocHandler.RevokeNOC)
				admin.PUT("/:id/suspend", nocHandler.SuspendNOC)
			}
		}

		// License routes
		licenses := authed.Group("/licenses")
		{
			licenses.GET("", licenseHandler.GetLicenses)
			licenses.GET("/:id", licenseHandler.GetLicense)

			admin := licenses.Group("")
			admin.Use(middleware.AdminRequired())
			{
				admin.POST("", licenseHandler.IssueLicense)
				admin.PUT("/:id/renew", licenseHandler.RenewLicense)
				admin.PUT("/:id/suspend", licenseHandler.SuspendLicense)
				admin.PUT("/:id/revoke", licenseHandler.RevokeLicense)
			}
		}

		// Notification routes
		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		// Admin routes
		admin := authed.Group("/admin")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}

		// Inspectors may run sweeps on demand as well
		authed.POST("/admin/sweeps/:sweep", middleware.StaffRequired(), middleware.SweepRateLimit(), adminHandler.RunSweep)
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":     state,
			"version":    "1.0.0",
			"components": components,
		})
	}
}
