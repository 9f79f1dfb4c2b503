package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/presets"
	"github.com/masilia/consent-bundle/internal/service"
	"github.com/masilia/consent-bundle/internal/utils"
	pkgutils "github.com/masilia/consent-bundle/pkg/utils"
)

const defaultStatsWindow = 30 * 24 * time.Hour

// AdminHandler handles the admin API: policy lifecycle, audit queries and
// the preset catalog.
type AdminHandler struct {
	policyService *service.PolicyService
	auditService  *service.AuditService
	catalog       *presets.Catalog
	logger        *logrus.Logger
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(
	policyService *service.PolicyService,
	auditService *service.AuditService,
	catalog *presets.Catalog,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		policyService: policyService,
		auditService:  auditService,
		catalog:       catalog,
		logger:        logger,
	}
}

// ListPolicies handles GET /api/admin/policies
func (h *AdminHandler) ListPolicies(c *gin.Context) {
	versions, err := h.policyService.ListVersions(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list policy versions")
		utils.SendInternalServerError(c, "Failed to list policy versions", "")
		return
	}
	utils.SendOKResponse(c, gin.H{"policies": versions})
}

// ExportPolicy handles GET /api/admin/policies/export. Without a version
// query parameter the active policy is exported.
func (h *AdminHandler) ExportPolicy(c *gin.Context) {
	file, err := h.policyService.Export(c.Request.Context(), c.Query("version"))
	if err != nil {
		h.handlePolicyError(c, err, "export")
		return
	}
	utils.SendOKResponse(c, file)
}

// ImportPolicy handles POST /api/admin/policies/import. The force query
// parameter replaces an existing version, activate makes the imported
// policy active.
func (h *AdminHandler) ImportPolicy(c *gin.Context) {
	var file models.PolicyExportFile
	if err := c.ShouldBindJSON(&file); err != nil {
		utils.SendBadRequestError(c, "Invalid policy file", err.Error())
		return
	}

	force := c.Query("force") == "true"
	activate := c.Query("activate") == "true"

	policy, err := h.policyService.Import(c.Request.Context(), &file, force, activate)
	if err != nil {
		h.handlePolicyError(c, err, "import")
		return
	}
	utils.SendCreatedResponse(c, gin.H{"version": policy.Version, "active": policy.IsActive})
}

// ActivatePolicy handles POST /api/admin/policies/:version/activate
func (h *AdminHandler) ActivatePolicy(c *gin.Context) {
	version := c.Param("version")
	if err := h.policyService.Activate(c.Request.Context(), version); err != nil {
		h.handlePolicyError(c, err, "activate")
		return
	}
	utils.SendOKResponse(c, models.ActionResponse{Success: true, Message: "Cookie policy activated"})
}

// DeletePolicy handles DELETE /api/admin/policies/:version
func (h *AdminHandler) DeletePolicy(c *gin.Context) {
	version := c.Param("version")
	if err := h.policyService.Delete(c.Request.Context(), version); err != nil {
		h.handlePolicyError(c, err, "delete")
		return
	}
	utils.SendNoContentResponse(c)
}

// GetStats handles GET /api/admin/stats. The window defaults to the last
// 30 days; from and to accept RFC3339 timestamps.
func (h *AdminHandler) GetStats(c *gin.Context) {
	to := time.Now().UTC()
	from := to.Add(-defaultStatsWindow)

	if raw := c.Query("from"); raw != "" {
		parsed, err := pkgutils.ParseTime(raw)
		if err != nil {
			utils.SendBadRequestError(c, "Invalid from timestamp", err.Error())
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := pkgutils.ParseTime(raw)
		if err != nil {
			utils.SendBadRequestError(c, "Invalid to timestamp", err.Error())
			return
		}
		to = parsed
	}

	stats, err := h.auditService.Statistics(c.Request.Context(), from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate consent statistics")
		utils.SendInternalServerError(c, "Failed to aggregate consent statistics", "")
		return
	}
	utils.SendOKResponse(c, stats)
}

// GetUserHistory handles GET /api/admin/logs/users/:userID
func (h *AdminHandler) GetUserHistory(c *gin.Context) {
	logs, err := h.auditService.HistoryForUser(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load consent history")
		utils.SendInternalServerError(c, "Failed to load consent history", "")
		return
	}
	utils.SendOKResponse(c, gin.H{"logs": logs})
}

// GetSessionLog handles GET /api/admin/logs/sessions/:sessionID
func (h *AdminHandler) GetSessionLog(c *gin.Context) {
	log, err := h.auditService.LatestForSession(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load consent log entry")
		utils.SendInternalServerError(c, "Failed to load consent log entry", "")
		return
	}
	if log == nil {
		utils.SendNotFoundError(c, models.ErrCodeNotFound, "No consent recorded for session")
		return
	}
	utils.SendOKResponse(c, log)
}

// ListPresets handles GET /api/admin/presets
func (h *AdminHandler) ListPresets(c *gin.Context) {
	utils.SendOKResponse(c, gin.H{"presets": h.catalog.List()})
}

// GetPreset handles GET /api/admin/presets/:id. With a serviceId query
// parameter the loader script is rendered with the account ID filled in.
func (h *AdminHandler) GetPreset(c *gin.Context) {
	preset := h.catalog.Get(c.Param("id"))
	if preset == nil {
		utils.SendNotFoundError(c, models.ErrCodeNotFound, "Unknown preset")
		return
	}

	response := gin.H{"preset": preset}
	if serviceID := c.Query("serviceId"); serviceID != "" {
		response["script"] = preset.Script(serviceID)
	}
	utils.SendOKResponse(c, response)
}

func (h *AdminHandler) handlePolicyError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNoActivePolicy):
		utils.SendNotFoundError(c, models.ErrCodeNoActivePolicy, "No active cookie policy")
	case errors.Is(err, service.ErrPolicyNotFound):
		utils.SendNotFoundError(c, models.ErrCodePolicyNotFound, err.Error())
	case errors.Is(err, service.ErrPolicyVersionExists):
		utils.SendConflictError(c, err.Error())
	case errors.Is(err, service.ErrPolicyActive):
		utils.SendConflictError(c, err.Error())
	default:
		h.logger.WithError(err).WithField("action", action).Error("Policy operation failed")
		utils.SendInternalServerError(c, "Policy operation failed", "")
	}
}
