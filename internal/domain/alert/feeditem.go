package alert

import (
	"fmt"
	"time"
)

// FeedItem is the in-product rendering of an alert, shown in the tenant's
// notification feed.
type FeedItem struct {
	id        uint
	orgSID    string
	alertSID  string
	title     string
	body      string
	read      bool
	createdAt time.Time
}

func NewFeedItem(orgSID, alertSID, title, body string) (*FeedItem, error) {
	if orgSID == "" {
		return nil, fmt.Errorf("organization SID is required")
	}
	if alertSID == "" {
		return nil, fmt.Errorf("alert SID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	return &FeedItem{
		orgSID:    orgSID,
		alertSID:  alertSID,
		title:     title,
		body:      body,
		createdAt: time.Now(),
	}, nil
}

func ReconstructFeedItem(itemID uint, orgSID, alertSID, title, body string, read bool, createdAt time.Time) (*FeedItem, error) {
	if itemID == 0 {
		return nil, fmt.Errorf("feed item ID cannot be zero")
	}

	return &FeedItem{
		id:        itemID,
		orgSID:    orgSID,
		alertSID:  alertSID,
		title:     title,
		body:      body,
		read:      read,
		createdAt: createdAt,
	}, nil
}

func (f *FeedItem) ID() uint             { return f.id }
func (f *FeedItem) OrgSID() string       { return f.orgSID }
func (f *FeedItem) AlertSID() string     { return f.alertSID }
func (f *FeedItem) Title() string        { return f.title }
func (f *FeedItem) Body() string         { return f.body }
func (f *FeedItem) Read() bool           { return f.read }
func (f *FeedItem) CreatedAt() time.Time { return f.createdAt }

func (f *FeedItem) SetID(itemID uint) error {
	if f.id != 0 {
		return fmt.Errorf("feed item ID is already set")
	}
	if itemID == 0 {
		return fmt.Errorf("feed item ID cannot be zero")
	}
	f.id = itemID
	return nil
}

func (f *FeedItem) MarkRead() {
	f.read = true
}
