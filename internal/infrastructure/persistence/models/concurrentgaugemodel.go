package models

import "time"

// ConcurrentGaugeModel represents the database persistence model for
// in-flight concurrency counts. One row per (organization, metric).
type ConcurrentGaugeModel struct {
	ID        uint   `gorm:"primarykey"`
	OrgSID    string `gorm:"column:org_sid;not null;size:32;uniqueIndex:idx_gauge_org_metric,priority:1"`
	Metric    string `gorm:"not null;size:100;uniqueIndex:idx_gauge_org_metric,priority:2"`
	Value     int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (ConcurrentGaugeModel) TableName() string {
	return "concurrent_gauges"
}
