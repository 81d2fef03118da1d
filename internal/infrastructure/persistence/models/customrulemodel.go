package models

import (
	"time"

	"gorm.io/datatypes"
)

// CustomRuleModel represents the database persistence model for custom
// per-organization gating rules.
type CustomRuleModel struct {
	ID         uint           `gorm:"primarykey"`
	SID        string         `gorm:"column:sid;not null;size:32;uniqueIndex:idx_rule_sid"`
	OrgSID     string         `gorm:"column:org_sid;not null;size:32;index:idx_rule_org_feature,priority:1"`
	Feature    string         `gorm:"not null;size:100;index:idx_rule_org_feature,priority:2"`
	RuleType   string         `gorm:"not null;size:30"`
	Effect     string         `gorm:"not null;size:10"`
	Conditions datatypes.JSON `gorm:"not null"`
	Reason     string         `gorm:"size:512"`
	Enabled    bool           `gorm:"not null;default:true"`
	ExpiresAt  *time.Time     `gorm:"index:idx_rule_expires"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (CustomRuleModel) TableName() string {
	return "custom_rules"
}
