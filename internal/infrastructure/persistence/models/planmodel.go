package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlanModel represents the database persistence model for plans
// This is the anti-corruption layer between domain and database
type PlanModel struct {
	ID        uint           `gorm:"primarykey"`
	Slug      string         `gorm:"not null;size:100;uniqueIndex:idx_plan_slug"`
	Name      string         `gorm:"not null;size:255"`
	Version   uint           `gorm:"not null;default:1"`
	Limits    datatypes.JSON `gorm:"not null"`
	SortOrder int            `gorm:"not null;default:0"`
	IsPublic  bool           `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}
