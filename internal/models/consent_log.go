package models

import "time"

// ConsentLog represents the CONSENT_LOG table. Rows are append-only; the core
// never mutates or deletes them.
type ConsentLog struct {
	LogID         string    `db:"LOG_ID" json:"logId"`
	SessionID     string    `db:"SESSION_ID" json:"sessionId"`
	PolicyVersion string    `db:"POLICY_VERSION" json:"policyVersion"`
	Preferences   JSON      `db:"PREFERENCES" json:"preferences"`
	UserID        *string   `db:"USER_ID" json:"userId,omitempty"`
	IPAddress     *string   `db:"IP_ADDRESS" json:"ipAddress,omitempty"`
	UserAgent     *string   `db:"USER_AGENT" json:"userAgent,omitempty"`
	CreatedAt     time.Time `db:"CREATED_AT" json:"createdAt"`
}

// PreferenceSnapshotCount is one row of the per-snapshot statistics grouping.
type PreferenceSnapshotCount struct {
	Preferences JSON `db:"PREFERENCES" json:"preferences"`
	Count       int  `db:"COUNT" json:"count"`
}

// ConsentStatistics is the aggregate returned by the admin stats endpoint.
type ConsentStatistics struct {
	From      time.Time                 `json:"from"`
	To        time.Time                 `json:"to"`
	Total     int                       `json:"total"`
	Snapshots []PreferenceSnapshotCount `json:"snapshots"`
}
