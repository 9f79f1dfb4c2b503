package models

import "time"

// CookiePolicy represents the COOKIE_POLICY table together with its owned
// categories and third-party services. At most one policy is active at a time.
type CookiePolicy struct {
	PolicyID       string    `db:"POLICY_ID" json:"-"`
	Version        string    `db:"VERSION" json:"version"`
	LastUpdated    time.Time `db:"LAST_UPDATED" json:"lastUpdated"`
	ExpirationDays int       `db:"EXPIRATION_DAYS" json:"expirationDays"`
	CookiePrefix   string    `db:"COOKIE_PREFIX" json:"cookiePrefix"`
	IsActive       bool      `db:"IS_ACTIVE" json:"isActive"`
	CreatedAt      time.Time `db:"CREATED_AT" json:"-"`
	UpdatedAt      time.Time `db:"UPDATED_AT" json:"-"`

	Categories         []CookieCategory    `db:"-" json:"categories"`
	ThirdPartyServices []ThirdPartyService `db:"-" json:"thirdPartyServices"`
}

// Category returns the category with the given identifier, or nil.
func (p *CookiePolicy) Category(identifier string) *CookieCategory {
	for i := range p.Categories {
		if p.Categories[i].Identifier == identifier {
			return &p.Categories[i]
		}
	}
	return nil
}

// CookieCategory represents the COOKIE_CATEGORY table. Identifier is unique
// within its policy; Position controls display order only.
type CookieCategory struct {
	CategoryID     string `db:"CATEGORY_ID" json:"-"`
	PolicyID       string `db:"POLICY_ID" json:"-"`
	Identifier     string `db:"IDENTIFIER" json:"id"`
	Name           string `db:"NAME" json:"name"`
	Description    string `db:"DESCRIPTION" json:"description"`
	Required       bool   `db:"REQUIRED" json:"required"`
	DefaultEnabled bool   `db:"DEFAULT_ENABLED" json:"defaultEnabled"`
	Position       int    `db:"POSITION" json:"-"`

	Cookies []Cookie `db:"-" json:"cookies"`
}

// Cookie represents the COOKIE table. A cookie optionally carries a script
// descriptor (external src and/or inline init code) gated on the category's
// consent.
type Cookie struct {
	CookieID    string  `db:"COOKIE_ID" json:"-"`
	CategoryID  string  `db:"CATEGORY_ID" json:"-"`
	Name        string  `db:"NAME" json:"name"`
	Purpose     string  `db:"PURPOSE" json:"purpose"`
	Provider    string  `db:"PROVIDER" json:"provider"`
	Expiry      string  `db:"EXPIRY" json:"expiry"`
	ScriptSrc   *string `db:"SCRIPT_SRC" json:"-"`
	ScriptAsync bool    `db:"SCRIPT_ASYNC" json:"-"`
	InitCode    *string `db:"INIT_CODE" json:"-"`
	Position    int     `db:"POSITION" json:"-"`
}

// HasScript reports whether the cookie carries any script descriptor.
func (c *Cookie) HasScript() bool {
	return (c.ScriptSrc != nil && *c.ScriptSrc != "") || (c.InitCode != nil && *c.InitCode != "")
}

// ThirdPartyService represents the THIRD_PARTY_SERVICE table.
type ThirdPartyService struct {
	ServiceID        string  `db:"SERVICE_ID" json:"-"`
	PolicyID         string  `db:"POLICY_ID" json:"-"`
	Identifier       string  `db:"IDENTIFIER" json:"id"`
	Name             string  `db:"NAME" json:"name"`
	Category         string  `db:"CATEGORY" json:"category"`
	Description      string  `db:"DESCRIPTION" json:"description"`
	PrivacyPolicyURL *string `db:"PRIVACY_POLICY_URL" json:"privacyPolicyUrl,omitempty"`
	ConfigKey        *string `db:"CONFIG_KEY" json:"configKey,omitempty"`
	ConfigValue      *string `db:"CONFIG_VALUE" json:"configValue,omitempty"`
	Enabled          bool    `db:"ENABLED" json:"enabled"`
	Position         int     `db:"POSITION" json:"-"`
}

// PolicyVersionInfo is the projection returned by version listings.
type PolicyVersionInfo struct {
	Version       string    `db:"VERSION" json:"version"`
	IsActive      bool      `db:"IS_ACTIVE" json:"isActive"`
	LastUpdated   time.Time `db:"LAST_UPDATED" json:"lastUpdated"`
	CategoryCount int       `db:"CATEGORY_COUNT" json:"categoryCount"`
}

// ScriptDescriptor is one script associated with a consented category,
// either an external tag (src + async) or an inline snippet.
type ScriptDescriptor struct {
	Type  string `json:"type"` // "external" or "inline"
	Name  string `json:"name"`
	Src   string `json:"src,omitempty"`
	Async bool   `json:"async,omitempty"`
	Code  string `json:"code,omitempty"`
}

const (
	ScriptTypeExternal = "external"
	ScriptTypeInline   = "inline"
)
