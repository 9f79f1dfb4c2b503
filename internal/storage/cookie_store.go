package storage

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/models"
	"github.com/masilia/consent-bundle/pkg/utils"
)

// ConsentCarrier reads and writes a single request's consent preference
// state. Each HTTP request owns its own carrier; there is no shared state
// between concurrent requests, and the last write wins.
type ConsentCarrier interface {
	// ReadConsent returns the stored preferences, or nil when no cookie is
	// present or the stored value is malformed.
	ReadConsent() *models.ConsentPreferences
	// WriteConsent persists the preferences in the consent cookie.
	WriteConsent(preferences *models.ConsentPreferences) error
	// ClearConsent expires the consent cookie.
	ClearConsent()
}

// CookieStore builds per-request consent carriers from the configured cookie
// attributes.
type CookieStore struct {
	cfg config.StorageConfig
}

// NewCookieStore creates a cookie store from the storage configuration
func NewCookieStore(cfg config.StorageConfig) *CookieStore {
	return &CookieStore{cfg: cfg}
}

// ForRequest returns the consent carrier bound to the given request
func (s *CookieStore) ForRequest(c *gin.Context) ConsentCarrier {
	return &requestCarrier{ctx: c, cfg: s.cfg}
}

// SessionID returns the caller's session identifier from the session cookie,
// or a fresh one when absent. The identifier is only used to correlate
// audit log entries.
func (s *CookieStore) SessionID(c *gin.Context) string {
	if id, err := c.Cookie(s.cfg.SessionCookieName); err == nil && id != "" {
		return id
	}
	return utils.GenerateID()
}

type requestCarrier struct {
	ctx *gin.Context
	cfg config.StorageConfig
}

func (r *requestCarrier) ReadConsent() *models.ConsentPreferences {
	value, err := r.ctx.Cookie(r.cfg.CookieName)
	if err != nil {
		return nil
	}
	// Malformed values decode to nil: treated as "no stored preference".
	return models.DecodePreferences(value)
}

func (r *requestCarrier) WriteConsent(preferences *models.ConsentPreferences) error {
	value, err := preferences.Encode()
	if err != nil {
		return err
	}

	maxAge := r.cfg.CookieLifetime * 24 * 60 * 60

	r.ctx.SetSameSite(sameSiteMode(r.cfg.CookieSameSite))
	r.ctx.SetCookie(
		r.cfg.CookieName,
		value,
		maxAge,
		r.cfg.CookiePath,
		r.cfg.CookieDomain,
		r.cfg.CookieSecure,
		r.cfg.CookieHTTPOnly,
	)
	return nil
}

func (r *requestCarrier) ClearConsent() {
	r.ctx.SetSameSite(sameSiteMode(r.cfg.CookieSameSite))
	r.ctx.SetCookie(
		r.cfg.CookieName,
		"",
		-1,
		r.cfg.CookiePath,
		r.cfg.CookieDomain,
		r.cfg.CookieSecure,
		r.cfg.CookieHTTPOnly,
	)
}

func sameSiteMode(value string) http.SameSite {
	switch value {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
