package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/handlers"
	"github.com/masilia/consent-bundle/internal/middleware"
	"github.com/masilia/consent-bundle/internal/presets"
	"github.com/masilia/consent-bundle/internal/service"
	"github.com/masilia/consent-bundle/internal/storage"
)

// SetupRouter configures all API routes
func SetupRouter(
	cfg *config.Config,
	consentService *service.ConsentService,
	policyService *service.PolicyService,
	scriptService *service.ScriptService,
	auditService *service.AuditService,
	cookieStore *storage.CookieStore,
	registry *prometheus.Registry,
	logger *logrus.Logger,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(cfg.CORS))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	if cfg.Metrics.Enabled && registry != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// Create handlers
	consentHandler := handlers.NewConsentHandler(consentService, cookieStore, logger)
	policyHandler := handlers.NewPolicyHandler(policyService, scriptService, consentService, cookieStore, logger)
	adminHandler := handlers.NewAdminHandler(policyService, auditService, presets.NewCatalog(), logger)

	// Public consent routes
	consent := router.Group("/api/consent")
	{
		consent.GET("/policy", policyHandler.GetPolicy)
		consent.GET("/categories", policyHandler.GetCategories)
		consent.GET("/scripts/:category", policyHandler.GetScripts)

		consent.GET("/status", consentHandler.GetStatus)
		consent.POST("/accept", consentHandler.AcceptAll)
		consent.POST("/reject", consentHandler.RejectNonEssential)
		consent.POST("/preferences", consentHandler.UpdatePreferences)
		consent.POST("/revoke", consentHandler.Revoke)
		consent.DELETE("/revoke", consentHandler.Revoke)
		consent.GET("/check/:category", consentHandler.Check)
	}

	// Admin routes behind basic auth
	admin := router.Group("/api/admin")
	admin.Use(middleware.BasicAuthMiddleware(cfg.Security.BasicAuth))
	{
		admin.GET("/policies", adminHandler.ListPolicies)
		admin.GET("/policies/export", adminHandler.ExportPolicy)
		admin.POST("/policies/import", adminHandler.ImportPolicy)
		admin.POST("/policies/:version/activate", adminHandler.ActivatePolicy)
		admin.DELETE("/policies/:version", adminHandler.DeletePolicy)

		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/logs/users/:userID", adminHandler.GetUserHistory)
		admin.GET("/logs/sessions/:sessionID", adminHandler.GetSessionLog)

		admin.GET("/presets", adminHandler.ListPresets)
		admin.GET("/presets/:id", adminHandler.GetPreset)
	}

	return router
}
