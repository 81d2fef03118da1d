package models

import "time"

// PlanChangeModel represents the database persistence model for the
// append-only plan-change history.
type PlanChangeModel struct {
	ID          uint      `gorm:"primarykey"`
	OrgSID      string    `gorm:"column:org_sid;not null;size:32;index:idx_planchange_org,priority:1"`
	FromSlug    string    `gorm:"size:100"`
	ToSlug      string    `gorm:"not null;size:100"`
	EffectiveAt time.Time `gorm:"not null"`
	Immediate   bool      `gorm:"not null;default:true"`
	Applied     bool      `gorm:"not null;default:false;index:idx_planchange_pending"`
	InitiatedBy string    `gorm:"size:100"`
	CreatedAt   time.Time `gorm:"index:idx_planchange_org,priority:2"`
}

// TableName specifies the table name for GORM
func (PlanChangeModel) TableName() string {
	return "plan_changes"
}
