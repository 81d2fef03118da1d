package models

import "time"

// FeedItemModel represents the database persistence model for the
// in-product notification feed.
type FeedItemModel struct {
	ID        uint   `gorm:"primarykey"`
	OrgSID    string `gorm:"column:org_sid;not null;size:32;index:idx_feed_org_created,priority:1"`
	AlertSID  string `gorm:"column:alert_sid;not null;size:32"`
	Title     string `gorm:"not null;size:255"`
	Body      string `gorm:"size:1024"`
	Read      bool   `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index:idx_feed_org_created,priority:2"`
}

// TableName specifies the table name for GORM
func (FeedItemModel) TableName() string {
	return "feed_items"
}
