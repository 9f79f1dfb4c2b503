package models

import (
	"fmt"
	"time"
)

// PolicyExportFile is the envelope written by policyctl export and read back
// by policyctl import.
type PolicyExportFile struct {
	CookiePolicy PolicyExport `json:"cookiePolicy"`
}

// PolicyExport is the exchange form of a policy aggregate.
type PolicyExport struct {
	Version            string                `json:"version"`
	LastUpdated        string                `json:"lastUpdated"`
	ExpirationDays     int                   `json:"expirationDays"`
	CookiePrefix       string                `json:"cookiePrefix"`
	Categories         []CategoryExport      `json:"categories"`
	ThirdPartyServices []ServiceExportRecord `json:"thirdPartyServices"`
}

// CategoryExport is the exchange form of a category with its cookies.
type CategoryExport struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Required       bool           `json:"required"`
	DefaultEnabled bool           `json:"defaultEnabled"`
	Cookies        []CookieExport `json:"cookies"`
}

// CookieExport is the exchange form of a cookie entry. The script block is
// present only when the cookie carries a script descriptor.
type CookieExport struct {
	Name     string        `json:"name"`
	Purpose  string        `json:"purpose"`
	Provider string        `json:"provider"`
	Expiry   string        `json:"expiry"`
	Script   *ScriptExport `json:"script,omitempty"`
}

// ScriptExport is the exchange form of a script descriptor.
type ScriptExport struct {
	Src      string `json:"src,omitempty"`
	Async    bool   `json:"async,omitempty"`
	InitCode string `json:"initCode,omitempty"`
}

// ServiceExportRecord is the exchange form of a third-party service.
type ServiceExportRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	PrivacyPolicy string `json:"privacyPolicy,omitempty"`
	ConfigKey     string `json:"configKey,omitempty"`
	ConfigValue   string `json:"configValue,omitempty"`
}

// ToExport converts a policy aggregate into its exchange form.
func (p *CookiePolicy) ToExport() PolicyExport {
	categories := make([]CategoryExport, 0, len(p.Categories))
	for _, category := range p.Categories {
		cookies := make([]CookieExport, 0, len(category.Cookies))
		for _, cookie := range category.Cookies {
			record := CookieExport{
				Name:     cookie.Name,
				Purpose:  cookie.Purpose,
				Provider: cookie.Provider,
				Expiry:   cookie.Expiry,
			}
			if cookie.HasScript() {
				script := &ScriptExport{Async: cookie.ScriptAsync}
				if cookie.ScriptSrc != nil {
					script.Src = *cookie.ScriptSrc
				}
				if cookie.InitCode != nil {
					script.InitCode = *cookie.InitCode
				}
				record.Script = script
			}
			cookies = append(cookies, record)
		}
		categories = append(categories, CategoryExport{
			ID:             category.Identifier,
			Name:           category.Name,
			Description:    category.Description,
			Required:       category.Required,
			DefaultEnabled: category.DefaultEnabled,
			Cookies:        cookies,
		})
	}

	services := make([]ServiceExportRecord, 0, len(p.ThirdPartyServices))
	for _, service := range p.ThirdPartyServices {
		record := ServiceExportRecord{
			ID:          service.Identifier,
			Name:        service.Name,
			Category:    service.Category,
			Description: service.Description,
		}
		if service.PrivacyPolicyURL != nil {
			record.PrivacyPolicy = *service.PrivacyPolicyURL
		}
		if service.ConfigKey != nil {
			record.ConfigKey = *service.ConfigKey
		}
		if service.ConfigValue != nil {
			record.ConfigValue = *service.ConfigValue
		}
		services = append(services, record)
	}

	return PolicyExport{
		Version:            p.Version,
		LastUpdated:        p.LastUpdated.Format("2006-01-02"),
		ExpirationDays:     p.ExpirationDays,
		CookiePrefix:       p.CookiePrefix,
		Categories:         categories,
		ThirdPartyServices: services,
	}
}

// FromExport converts an exchange form back into a policy aggregate.
// Positions are assigned from the order in the file.
func FromExport(export PolicyExport) (*CookiePolicy, error) {
	if export.Version == "" {
		return nil, fmt.Errorf("policy version is required")
	}

	lastUpdated, err := time.Parse("2006-01-02", export.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("invalid lastUpdated %q: %w", export.LastUpdated, err)
	}

	policy := &CookiePolicy{
		Version:        export.Version,
		LastUpdated:    lastUpdated,
		ExpirationDays: export.ExpirationDays,
		CookiePrefix:   export.CookiePrefix,
	}

	seen := make(map[string]bool, len(export.Categories))
	for position, categoryData := range export.Categories {
		if categoryData.ID == "" {
			return nil, fmt.Errorf("category at position %d has no id", position)
		}
		if seen[categoryData.ID] {
			return nil, fmt.Errorf("duplicate category identifier %q", categoryData.ID)
		}
		seen[categoryData.ID] = true

		category := CookieCategory{
			Identifier:     categoryData.ID,
			Name:           categoryData.Name,
			Description:    categoryData.Description,
			Required:       categoryData.Required,
			DefaultEnabled: categoryData.DefaultEnabled,
			Position:       position,
		}
		for cookiePosition, cookieData := range categoryData.Cookies {
			cookie := Cookie{
				Name:     cookieData.Name,
				Purpose:  cookieData.Purpose,
				Provider: cookieData.Provider,
				Expiry:   cookieData.Expiry,
				Position: cookiePosition,
			}
			if cookieData.Script != nil {
				if cookieData.Script.Src != "" {
					src := cookieData.Script.Src
					cookie.ScriptSrc = &src
					cookie.ScriptAsync = cookieData.Script.Async
				}
				if cookieData.Script.InitCode != "" {
					code := cookieData.Script.InitCode
					cookie.InitCode = &code
				}
			}
			category.Cookies = append(category.Cookies, cookie)
		}
		policy.Categories = append(policy.Categories, category)
	}

	for position, serviceData := range export.ThirdPartyServices {
		service := ThirdPartyService{
			Identifier:  serviceData.ID,
			Name:        serviceData.Name,
			Category:    serviceData.Category,
			Description: serviceData.Description,
			Enabled:     true,
			Position:    position,
		}
		if serviceData.PrivacyPolicy != "" {
			url := serviceData.PrivacyPolicy
			service.PrivacyPolicyURL = &url
		}
		if serviceData.ConfigKey != "" {
			key := serviceData.ConfigKey
			service.ConfigKey = &key
		}
		if serviceData.ConfigValue != "" {
			value := serviceData.ConfigValue
			service.ConfigValue = &value
		}
		policy.ThirdPartyServices = append(policy.ThirdPartyServices, service)
	}

	return policy, nil
}
