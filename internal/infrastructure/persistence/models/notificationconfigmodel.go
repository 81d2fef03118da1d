package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationConfigModel represents the database persistence model for
// per-organization alert delivery settings.
type NotificationConfigModel struct {
	ID             uint           `gorm:"primarykey"`
	OrgSID         string         `gorm:"column:org_sid;not null;size:32;uniqueIndex:idx_notifcfg_org"`
	Enabled        bool           `gorm:"not null;default:true"`
	Channels       datatypes.JSON `gorm:"not null"`
	Thresholds     datatypes.JSON `gorm:"not null"`
	Recipients     datatypes.JSON
	WebhookURL     string `gorm:"size:1024"`
	ChatWebhookURL string `gorm:"size:1024"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (NotificationConfigModel) TableName() string {
	return "notification_configs"
}
