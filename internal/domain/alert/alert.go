package alert

import (
	"fmt"
	"time"

	"metergate/internal/shared/id"
)

// Type discriminates how an alert was produced.
type Type string

const (
	TypeThreshold  Type = "threshold"
	TypeSpike      Type = "usage_spike"
	TypeProjection Type = "usage_projection"
)

// Severity buckets an alert for display and routing.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityForPercent maps a usage percentage onto a severity bucket.
func SeverityForPercent(percentage float64) Severity {
	switch {
	case percentage >= 90:
		return SeverityCritical
	case percentage >= 80:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Alert is one materialized notification event. Alerts are append-only per
// organization and mutated only by acknowledgement.
type Alert struct {
	id             uint
	sid            string
	orgSID         string
	feature        string
	alertType      Type
	threshold      int
	percentage     float64
	severity       Severity
	message        string
	acknowledged   bool
	acknowledgedAt *time.Time
	createdAt      time.Time
}

func newAlert(orgSID, feature string, alertType Type, threshold int, percentage float64, severity Severity, message string) (*Alert, error) {
	if orgSID == "" {
		return nil, fmt.Errorf("organization SID is required")
	}
	if feature == "" {
		return nil, fmt.Errorf("feature is required")
	}
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	sid, err := id.NewAlertID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SID: %w", err)
	}

	return &Alert{
		sid:        sid,
		orgSID:     orgSID,
		feature:    feature,
		alertType:  alertType,
		threshold:  threshold,
		percentage: percentage,
		severity:   severity,
		message:    message,
		createdAt:  time.Now(),
	}, nil
}

// NewThresholdAlert materializes a threshold crossing for (org, feature, T).
func NewThresholdAlert(orgSID, feature string, threshold int, percentage float64, current, limit int64) (*Alert, error) {
	msg := fmt.Sprintf("%s usage is at %.0f%% of the plan limit (%d of %d)", feature, percentage, current, limit)
	if threshold >= 100 {
		msg = fmt.Sprintf("%s usage has reached the plan limit (%d of %d)", feature, current, limit)
	}
	return newAlert(orgSID, feature, TypeThreshold, threshold, percentage, SeverityForPercent(percentage), msg)
}

// NewSpikeAlert reports unusual growth over the sampling window.
func NewSpikeAlert(orgSID, feature string, growthPercent float64) (*Alert, error) {
	msg := fmt.Sprintf("%s usage grew %.0f%% in the last hour", feature, growthPercent)
	return newAlert(orgSID, feature, TypeSpike, 0, growthPercent, SeverityWarning, msg)
}

// NewProjectionAlert reports projected limit exhaustion within hoursToLimit.
func NewProjectionAlert(orgSID, feature string, hoursToLimit float64) (*Alert, error) {
	msg := fmt.Sprintf("%s is projected to hit its plan limit in about %.1f hours at the current rate", feature, hoursToLimit)
	return newAlert(orgSID, feature, TypeProjection, 0, hoursToLimit, SeverityCritical, msg)
}

func ReconstructAlert(alertID uint, sid, orgSID, feature string, alertType Type,
	threshold int, percentage float64, severity Severity, message string,
	acknowledged bool, acknowledgedAt *time.Time, createdAt time.Time) (*Alert, error) {

	if alertID == 0 {
		return nil, fmt.Errorf("alert ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("alert SID is required")
	}

	return &Alert{
		id:             alertID,
		sid:            sid,
		orgSID:         orgSID,
		feature:        feature,
		alertType:      alertType,
		threshold:      threshold,
		percentage:     percentage,
		severity:       severity,
		message:        message,
		acknowledged:   acknowledged,
		acknowledgedAt: acknowledgedAt,
		createdAt:      createdAt,
	}, nil
}

func (a *Alert) ID() uint                   { return a.id }
func (a *Alert) SID() string                { return a.sid }
func (a *Alert) OrgSID() string             { return a.orgSID }
func (a *Alert) Feature() string            { return a.feature }
func (a *Alert) AlertType() Type            { return a.alertType }
func (a *Alert) Threshold() int             { return a.threshold }
func (a *Alert) Percentage() float64        { return a.percentage }
func (a *Alert) Severity() Severity         { return a.severity }
func (a *Alert) Message() string            { return a.message }
func (a *Alert) Acknowledged() bool         { return a.acknowledged }
func (a *Alert) AcknowledgedAt() *time.Time { return a.acknowledgedAt }
func (a *Alert) CreatedAt() time.Time       { return a.createdAt }

func (a *Alert) SetID(alertID uint) error {
	if a.id != 0 {
		return fmt.Errorf("alert ID is already set")
	}
	if alertID == 0 {
		return fmt.Errorf("alert ID cannot be zero")
	}
	a.id = alertID
	return nil
}

// Acknowledge marks the alert as seen. Acknowledging twice is a no-op.
func (a *Alert) Acknowledge() {
	if a.acknowledged {
		return
	}
	now := time.Now()
	a.acknowledged = true
	a.acknowledgedAt = &now
}
