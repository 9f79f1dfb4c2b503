package models

import (
	"encoding/json"
	"time"
)

// fallbackVersion is assumed for stored preferences that predate versioned
// policies and carry no version field.
const fallbackVersion = "1.0.0"

// ConsentPreferences is the user's per-category consent decision tied to the
// policy version it was made under. Instances are immutable; every transition
// constructs a new value.
type ConsentPreferences struct {
	categories map[string]bool
	version    string
	timestamp  time.Time
}

// NewConsentPreferences builds a preference set for the given policy version,
// timestamped now. The input map is copied.
func NewConsentPreferences(categories map[string]bool, version string) *ConsentPreferences {
	return newPreferences(categories, version, time.Now().UTC())
}

func newPreferences(categories map[string]bool, version string, ts time.Time) *ConsentPreferences {
	copied := make(map[string]bool, len(categories))
	for id, consented := range categories {
		copied[id] = consented
	}
	return &ConsentPreferences{
		categories: copied,
		version:    version,
		timestamp:  ts,
	}
}

// Categories returns a copy of the per-category decisions.
func (p *ConsentPreferences) Categories() map[string]bool {
	copied := make(map[string]bool, len(p.categories))
	for id, consented := range p.categories {
		copied[id] = consented
	}
	return copied
}

// HasConsent reports whether the given category was consented to. Absent
// identifiers read as false.
func (p *ConsentPreferences) HasConsent(category string) bool {
	return p.categories[category]
}

// Version returns the policy version the decision was made under.
func (p *ConsentPreferences) Version() string {
	return p.version
}

// Timestamp returns when the decision was made.
func (p *ConsentPreferences) Timestamp() time.Time {
	return p.timestamp
}

// preferencesPayload is the wire form persisted in the consent cookie.
type preferencesPayload struct {
	Categories map[string]bool `json:"categories"`
	Version    string          `json:"version"`
	Timestamp  string          `json:"timestamp"`
}

// Encode serializes the preferences to the JSON form stored in the consent
// cookie.
func (p *ConsentPreferences) Encode() (string, error) {
	payload := preferencesPayload{
		Categories: p.categories,
		Version:    p.version,
		Timestamp:  p.timestamp.Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MarshalJSON renders the same shape as Encode, for API responses.
func (p *ConsentPreferences) MarshalJSON() ([]byte, error) {
	return json.Marshal(preferencesPayload{
		Categories: p.categories,
		Version:    p.version,
		Timestamp:  p.timestamp.Format(time.RFC3339),
	})
}

// DecodePreferences parses a stored cookie value. Any malformed input reads
// as "no stored preference": the caller gets nil, never an error, and falls
// back to the no-consent state.
func DecodePreferences(value string) *ConsentPreferences {
	if value == "" {
		return nil
	}

	var payload preferencesPayload
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil
	}
	if payload.Categories == nil {
		return nil
	}

	version := payload.Version
	if version == "" {
		version = fallbackVersion
	}

	ts, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	return newPreferences(payload.Categories, version, ts)
}
