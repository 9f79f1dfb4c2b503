package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/service"
	"github.com/masilia/consent-bundle/internal/storage"
	"github.com/masilia/consent-bundle/internal/utils"
)

// PolicyHandler handles the public policy and script endpoints
type PolicyHandler struct {
	policyService  *service.PolicyService
	scriptService  *service.ScriptService
	consentService *service.ConsentService
	cookieStore    *storage.CookieStore
	logger         *logrus.Logger
}

// NewPolicyHandler creates a new policy handler instance
func NewPolicyHandler(
	policyService *service.PolicyService,
	scriptService *service.ScriptService,
	consentService *service.ConsentService,
	cookieStore *storage.CookieStore,
	logger *logrus.Logger,
) *PolicyHandler {
	return &PolicyHandler{
		policyService:  policyService,
		scriptService:  scriptService,
		consentService: consentService,
		cookieStore:    cookieStore,
		logger:         logger,
	}
}

// GetPolicy handles GET /api/consent/policy
func (h *PolicyHandler) GetPolicy(c *gin.Context) {
	policy, err := h.activePolicy(c)
	if policy == nil || err != nil {
		return
	}
	utils.SendOKResponse(c, models.NewPolicyResponse(policy))
}

// GetCategories handles GET /api/consent/categories
func (h *PolicyHandler) GetCategories(c *gin.Context) {
	policy, err := h.activePolicy(c)
	if policy == nil || err != nil {
		return
	}

	categories := make([]models.CategorySummary, 0, len(policy.Categories))
	for _, category := range policy.Categories {
		categories = append(categories, models.CategorySummary{
			ID:             category.Identifier,
			Name:           category.Name,
			Description:    category.Description,
			Required:       category.Required,
			DefaultEnabled: category.DefaultEnabled,
		})
	}
	utils.SendOKResponse(c, models.CategoriesResponse{Categories: categories})
}

// GetScripts handles GET /api/consent/scripts/:category. Scripts are only
// released when the caller has consented to the category. With
// format=html the scripts are rendered as ready-to-embed script tags.
func (h *PolicyHandler) GetScripts(c *gin.Context) {
	identifier := c.Param("category")

	policy, err := h.activePolicy(c)
	if policy == nil || err != nil {
		return
	}

	category := policy.Category(identifier)
	if category == nil {
		utils.SendNotFoundError(c, models.ErrCodeNotFound, "Unknown cookie category")
		return
	}

	carrier := h.cookieStore.ForRequest(c)

	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(h.scriptService.GenerateScriptTags(carrier, category)))
		return
	}

	utils.SendOKResponse(c, models.ScriptsResponse{
		Category:     identifier,
		Scripts:      h.scriptService.ScriptsForCategory(carrier, category),
		ShouldInject: h.scriptService.ShouldInject(carrier, identifier),
	})
}

// activePolicy resolves the active policy, writing the error response
// itself when there is none.
func (h *PolicyHandler) activePolicy(c *gin.Context) (*models.CookiePolicy, error) {
	policy, err := h.policyService.GetActivePolicy(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load active policy")
		utils.SendInternalServerError(c, "Failed to load cookie policy", "")
		return nil, err
	}
	if policy == nil {
		utils.SendNotFoundError(c, models.ErrCodeNoActivePolicy, "No active cookie policy")
		return nil, nil
	}
	return policy, nil
}
