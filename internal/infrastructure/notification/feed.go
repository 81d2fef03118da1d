package notification

import (
	"context"
	"fmt"

	"metergate/internal/domain/alert"
)

// FeedChannel materializes the alert as an item in the tenant's in-product
// notification feed. Always available regardless of external configuration.
type FeedChannel struct {
	feed alert.FeedRepository
}

func NewFeedChannel(feed alert.FeedRepository) *FeedChannel {
	return &FeedChannel{feed: feed}
}

func (c *FeedChannel) Name() alert.ChannelType {
	return alert.ChannelFeed
}

func (c *FeedChannel) Send(ctx context.Context, a *alert.Alert, cfg *alert.NotificationConfig) error {
	title := fmt.Sprintf("%s usage alert", a.Feature())
	item, err := alert.NewFeedItem(a.OrgSID(), a.SID(), title, a.Message())
	if err != nil {
		return err
	}
	return c.feed.Create(ctx, item)
}
