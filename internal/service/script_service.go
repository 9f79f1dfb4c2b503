package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/masilia/consent-bundle/internal/metrics"
	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/internal/storage"
)

// ScriptService gates tracking script delivery on the caller's consent.
// Without consent for a category none of its scripts are ever released.
type ScriptService struct {
	consentService *ConsentService
	metrics        *metrics.Metrics
	logger         *logrus.Logger
}

// NewScriptService creates a new script service instance
func NewScriptService(consentService *ConsentService, m *metrics.Metrics, logger *logrus.Logger) *ScriptService {
	return &ScriptService{
		consentService: consentService,
		metrics:        m,
		logger:         logger,
	}
}

// ShouldInject reports whether scripts of the given category may be
// delivered to this request
func (s *ScriptService) ShouldInject(carrier storage.ConsentCarrier, category string) bool {
	return s.consentService.HasConsent(carrier, category)
}

// ScriptsForCategory returns the script descriptors of the category in
// declaration order, or an empty slice when the request has not consented
// to the category.
func (s *ScriptService) ScriptsForCategory(carrier storage.ConsentCarrier, category *models.CookieCategory) []models.ScriptDescriptor {
	if !s.consentService.HasConsent(carrier, category.Identifier) {
		if s.metrics != nil {
			s.metrics.ScriptsBlocked.Inc()
		}
		return []models.ScriptDescriptor{}
	}

	scripts := make([]models.ScriptDescriptor, 0, len(category.Cookies))
	for i := range category.Cookies {
		cookie := &category.Cookies[i]
		if !cookie.HasScript() {
			continue
		}
		if cookie.ScriptSrc != nil && *cookie.ScriptSrc != "" {
			scripts = append(scripts, models.ScriptDescriptor{
				Type:  models.ScriptTypeExternal,
				Name:  cookie.Name,
				Src:   *cookie.ScriptSrc,
				Async: cookie.ScriptAsync,
			})
		}
		if cookie.InitCode != nil && *cookie.InitCode != "" {
			scripts = append(scripts, models.ScriptDescriptor{
				Type: models.ScriptTypeInline,
				Name: cookie.Name,
				Code: *cookie.InitCode,
			})
		}
	}
	return scripts
}

// GenerateScriptTags renders the category's scripts as HTML script tags,
// each annotated with a data-consent-category attribute. Returns an empty
// string without consent.
func (s *ScriptService) GenerateScriptTags(carrier storage.ConsentCarrier, category *models.CookieCategory) string {
	scripts := s.ScriptsForCategory(carrier, category)
	if len(scripts) == 0 {
		return ""
	}

	identifier := html.EscapeString(category.Identifier)

	var builder strings.Builder
	for _, script := range scripts {
		switch script.Type {
		case models.ScriptTypeExternal:
			async := ""
			if script.Async {
				async = " async"
			}
			fmt.Fprintf(&builder, "<script src=\"%s\"%s data-consent-category=\"%s\"></script>\n",
				html.EscapeString(script.Src), async, identifier)
		case models.ScriptTypeInline:
			fmt.Fprintf(&builder, "<script data-consent-category=\"%s\">\n%s\n</script>\n",
				identifier, script.Code)
		}
	}
	return builder.String()
}
