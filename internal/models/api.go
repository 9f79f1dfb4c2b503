package models

// StatusResponse is the body of GET /api/consent/status.
type StatusResponse struct {
	HasConsent    bool                `json:"hasConsent"`
	Preferences   *ConsentPreferences `json:"preferences"`
	PolicyVersion string              `json:"policyVersion,omitempty"`
	NeedsUpdate   *bool               `json:"needsUpdate,omitempty"`
}

// ActionResponse is the body of the accept/reject/preferences/revoke endpoints.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PreferencesUpdateRequest is the body of POST /api/consent/preferences.
// Categories must be present; unknown identifiers are accepted and preserved.
type PreferencesUpdateRequest struct {
	Categories map[string]bool `json:"categories"`
}

// CheckResponse is the body of GET /api/consent/check/{category}.
type CheckResponse struct {
	Category   string `json:"category"`
	HasConsent bool   `json:"hasConsent"`
}

// ScriptsResponse is the body of GET /api/consent/scripts/{category}.
type ScriptsResponse struct {
	Category     string             `json:"category"`
	Scripts      []ScriptDescriptor `json:"scripts"`
	ShouldInject bool               `json:"shouldInject"`
}

// PolicyResponse is the public projection of the active policy returned by
// GET /api/consent/policy.
type PolicyResponse struct {
	Version            string                     `json:"version"`
	LastUpdated        string                     `json:"lastUpdated"`
	ExpirationDays     int                        `json:"expirationDays"`
	CookiePrefix       string                     `json:"cookiePrefix"`
	Categories         []PolicyCategoryResponse   `json:"categories"`
	ThirdPartyServices []ThirdPartyServiceSummary `json:"thirdPartyServices"`
}

// PolicyCategoryResponse is one category in the public policy projection.
type PolicyCategoryResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Required       bool                  `json:"required"`
	DefaultEnabled bool                  `json:"defaultEnabled"`
	Cookies        []PolicyCookieSummary `json:"cookies"`
}

// PolicyCookieSummary is the public projection of a cookie entry. Script
// descriptors are deliberately absent: scripts are only served through the
// consent-gated scripts endpoint.
type PolicyCookieSummary struct {
	Name     string `json:"name"`
	Purpose  string `json:"purpose"`
	Provider string `json:"provider"`
	Expiry   string `json:"expiry"`
}

// ThirdPartyServiceSummary is the public projection of an enabled service.
type ThirdPartyServiceSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Category         string `json:"category"`
	Description      string `json:"description"`
	PrivacyPolicyURL string `json:"privacyPolicyUrl,omitempty"`
}

// CategoriesResponse is the body of GET /api/consent/categories.
type CategoriesResponse struct {
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary is one category in the categories listing.
type CategorySummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Required       bool   `json:"required"`
	DefaultEnabled bool   `json:"defaultEnabled"`
}

// NewPolicyResponse builds the public projection of a policy. Disabled
// third-party services are omitted.
func NewPolicyResponse(policy *CookiePolicy) *PolicyResponse {
	categories := make([]PolicyCategoryResponse, 0, len(policy.Categories))
	for _, category := range policy.Categories {
		cookies := make([]PolicyCookieSummary, 0, len(category.Cookies))
		for _, cookie := range category.Cookies {
			cookies = append(cookies, PolicyCookieSummary{
				Name:     cookie.Name,
				Purpose:  cookie.Purpose,
				Provider: cookie.Provider,
				Expiry:   cookie.Expiry,
			})
		}
		categories = append(categories, PolicyCategoryResponse{
			ID:             category.Identifier,
			Name:           category.Name,
			Description:    category.Description,
			Required:       category.Required,
			DefaultEnabled: category.DefaultEnabled,
			Cookies:        cookies,
		})
	}

	services := make([]ThirdPartyServiceSummary, 0, len(policy.ThirdPartyServices))
	for _, service := range policy.ThirdPartyServices {
		if !service.Enabled {
			continue
		}
		summary := ThirdPartyServiceSummary{
			ID:          service.Identifier,
			Name:        service.Name,
			Category:    service.Category,
			Description: service.Description,
		}
		if service.PrivacyPolicyURL != nil {
			summary.PrivacyPolicyURL = *service.PrivacyPolicyURL
		}
		services = append(services, summary)
	}

	return &PolicyResponse{
		Version:            policy.Version,
		LastUpdated:        policy.LastUpdated.Format("2006-01-02"),
		ExpirationDays:     policy.ExpirationDays,
		CookiePrefix:       policy.CookiePrefix,
		Categories:         categories,
		ThirdPartyServices: services,
	}
}
