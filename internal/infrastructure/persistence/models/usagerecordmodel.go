package models

import "time"

// UsageRecordModel represents the database persistence model for monthly
// usage counters. One row per (organization, metric); the month tag marks
// the period the count belongs to and is rewritten in place on rollover.
type UsageRecordModel struct {
	ID        uint   `gorm:"primarykey"`
	OrgSID    string `gorm:"column:org_sid;not null;size:32;uniqueIndex:idx_usage_org_metric,priority:1"`
	Metric    string `gorm:"not null;size:100;uniqueIndex:idx_usage_org_metric,priority:2"`
	Month     string `gorm:"not null;size:7;index:idx_usage_month"`
	Count     int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (UsageRecordModel) TableName() string {
	return "usage_records"
}
