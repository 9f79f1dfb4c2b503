package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/service"
	"github.com/masilia/consent-bundle/internal/storage"
	"github.com/masilia/consent-bundle/internal/utils"
)

// ConsentHandler handles the public consent endpoints
type ConsentHandler struct {
	consentService *service.ConsentService
	cookieStore    *storage.CookieStore
	logger         *logrus.Logger
}

// NewConsentHandler creates a new consent handler instance
func NewConsentHandler(consentService *service.ConsentService, cookieStore *storage.CookieStore, logger *logrus.Logger) *ConsentHandler {
	return &ConsentHandler{
		consentService: consentService,
		cookieStore:    cookieStore,
		logger:         logger,
	}
}

// GetStatus handles GET /api/consent/status
func (h *ConsentHandler) GetStatus(c *gin.Context) {
	status, err := h.consentService.Status(c.Request.Context(), h.cookieStore.ForRequest(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve consent status")
		utils.SendInternalServerError(c, "Failed to resolve consent status", "")
		return
	}
	utils.SendOKResponse(c, status)
}

// AcceptAll handles POST /api/consent/accept
func (h *ConsentHandler) AcceptAll(c *gin.Context) {
	_, err := h.consentService.AcceptAll(c.Request.Context(), h.cookieStore.ForRequest(c), h.requestMeta(c))
	if err != nil {
		h.handleTransitionError(c, err, "accept")
		return
	}
	utils.SendOKResponse(c, models.ActionResponse{Success: true, Message: "All cookie categories accepted"})
}

// RejectNonEssential handles POST /api/consent/reject
func (h *ConsentHandler) RejectNonEssential(c *gin.Context) {
	_, err := h.consentService.RejectNonEssential(c.Request.Context(), h.cookieStore.ForRequest(c), h.requestMeta(c))
	if err != nil {
		h.handleTransitionError(c, err, "reject")
		return
	}
	utils.SendOKResponse(c, models.ActionResponse{Success: true, Message: "Non-essential cookie categories rejected"})
}

// UpdatePreferences handles POST /api/consent/preferences
func (h *ConsentHandler) UpdatePreferences(c *gin.Context) {
	var request models.PreferencesUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}
	if request.Categories == nil {
		utils.SendValidationError(c, "categories is required")
		return
	}

	_, err := h.consentService.UpdatePreferences(c.Request.Context(), h.cookieStore.ForRequest(c), h.requestMeta(c), request.Categories)
	if err != nil {
		h.handleTransitionError(c, err, "update")
		return
	}
	utils.SendOKResponse(c, models.ActionResponse{Success: true, Message: "Cookie preferences saved"})
}

// Revoke handles POST and DELETE /api/consent/revoke
func (h *ConsentHandler) Revoke(c *gin.Context) {
	if err := h.consentService.Revoke(c.Request.Context(), h.cookieStore.ForRequest(c), h.requestMeta(c)); err != nil {
		h.handleTransitionError(c, err, "revoke")
		return
	}
	utils.SendOKResponse(c, models.ActionResponse{Success: true, Message: "Consent revoked"})
}

// Check handles GET /api/consent/check/:category
func (h *ConsentHandler) Check(c *gin.Context) {
	category := c.Param("category")
	if category == "" {
		utils.SendBadRequestError(c, "Category is required", "")
		return
	}

	utils.SendOKResponse(c, models.CheckResponse{
		Category:   category,
		HasConsent: h.consentService.HasConsent(h.cookieStore.ForRequest(c), category),
	})
}

func (h *ConsentHandler) requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		SessionID: h.cookieStore.SessionID(c),
		UserID:    c.GetHeader("X-User-ID"),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func (h *ConsentHandler) handleTransitionError(c *gin.Context, err error, action string) {
	if errors.Is(err, service.ErrNoActivePolicy) {
		utils.SendNotFoundError(c, models.ErrCodeNoActivePolicy, "No active cookie policy")
		return
	}
	h.logger.WithError(err).WithField("action", action).Error("Consent transition failed")
	utils.SendInternalServerError(c, "Failed to save consent", "")
}
