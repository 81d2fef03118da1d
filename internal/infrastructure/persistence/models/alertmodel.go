package models

import "time"

// AlertModel represents the database persistence model for alerts
// This is the anti-corruption layer between domain and database
type AlertModel struct {
	ID             uint    `gorm:"primarykey"`
	SID            string  `gorm:"column:sid;not null;size:32;uniqueIndex:idx_alert_sid"`
	OrgSID         string  `gorm:"column:org_sid;not null;size:32;index:idx_alert_org_created,priority:1"`
	Feature        string  `gorm:"not null;size:100;index:idx_alert_dedup,priority:2"`
	AlertType      string  `gorm:"not null;size:30;index:idx_alert_dedup,priority:1"`
	Threshold      int     `gorm:"not null;default:0;index:idx_alert_dedup,priority:3"`
	Percentage     float64 `gorm:"not null;default:0"`
	Severity       string  `gorm:"not null;size:20"`
	Message        string  `gorm:"not null;size:1024"`
	Acknowledged   bool    `gorm:"not null;default:false"`
	AcknowledgedAt *time.Time
	CreatedAt      time.Time `gorm:"index:idx_alert_org_created,priority:2;index:idx_alert_dedup,priority:4"`
}

// TableName specifies the table name for GORM
func (AlertModel) TableName() string {
	return "alerts"
}
