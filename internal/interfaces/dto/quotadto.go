package dto

// CheckRequest asks whether the organization may use a feature.
type CheckRequest struct {
	OrgSID        string            `json:"org_sid"`
	Feature       string            `json:"feature" binding:"required"`
	Amount        int64             `json:"amount"`
	Concurrent    bool              `json:"concurrent"`
	NotifyOnLimit bool              `json:"notify_on_limit"`
	UserID        string            `json:"user_id"`
	Attributes    map[string]string `json:"attributes"`
}

// BatchCheckRequest checks several features in one round trip.
type BatchCheckRequest struct {
	OrgSID   string   `json:"org_sid"`
	Features []string `json:"features" binding:"required,min=1"`
}

// RecordUsageRequest reports consumed units or acquires a concurrent slot.
type RecordUsageRequest struct {
	OrgSID     string `json:"org_sid"`
	Metric     string `json:"metric" binding:"required"`
	Amount     int64  `json:"amount"`
	Concurrent bool   `json:"concurrent"`
}

// ReleaseUsageRequest releases a concurrent slot.
type ReleaseUsageRequest struct {
	OrgSID string `json:"org_sid"`
	Metric string `json:"metric" binding:"required"`
}
