package models

import "time"

// OrganizationModel represents the database persistence model for organizations
// This is the anti-corruption layer between domain and database
type OrganizationModel struct {
	ID        uint   `gorm:"primarykey"`
	SID       string `gorm:"column:sid;not null;size:32;uniqueIndex:idx_org_sid"`
	Name      string `gorm:"not null;size:255"`
	PlanSlug  string `gorm:"size:100;index:idx_org_plan"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}
