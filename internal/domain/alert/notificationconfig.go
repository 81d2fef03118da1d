package alert

import "fmt"

// ChannelType names a delivery channel.
type ChannelType string

const (
	ChannelEmail       ChannelType = "email"
	ChannelChatWebhook ChannelType = "chat_webhook"
	ChannelWebhook     ChannelType = "webhook"
	ChannelFeed        ChannelType = "feed"
)

var validChannels = map[ChannelType]bool{
	ChannelEmail:       true,
	ChannelChatWebhook: true,
	ChannelWebhook:     true,
	ChannelFeed:        true,
}

// DefaultThresholds is the threshold ladder used when an organization has
// not configured its own.
var DefaultThresholds = []int{80, 90, 100}

// NotificationConfig is the per-organization delivery configuration.
type NotificationConfig struct {
	OrgSID         string
	Enabled        bool
	Channels       []ChannelType
	Thresholds     []int
	Recipients     []string
	WebhookURL     string
	ChatWebhookURL string
}

// DefaultNotificationConfig enables only the in-product feed so alerting
// works before an organization configures anything.
func DefaultNotificationConfig(orgSID string) *NotificationConfig {
	return &NotificationConfig{
		OrgSID:     orgSID,
		Enabled:    true,
		Channels:   []ChannelType{ChannelFeed},
		Thresholds: append([]int(nil), DefaultThresholds...),
	}
}

// Validate checks channel names and the threshold ladder.
func (c *NotificationConfig) Validate() error {
	if c.OrgSID == "" {
		return fmt.Errorf("organization SID is required")
	}
	for _, ch := range c.Channels {
		if !validChannels[ch] {
			return fmt.Errorf("unknown channel: %s", ch)
		}
	}
	prev := 0
	for _, t := range c.Thresholds {
		if t <= 0 || t > 100 {
			return fmt.Errorf("threshold out of range: %d", t)
		}
		if t <= prev {
			return fmt.Errorf("thresholds must be strictly ascending")
		}
		prev = t
	}
	return nil
}

// HasChannel reports whether ch is enabled for this organization.
func (c *NotificationConfig) HasChannel(ch ChannelType) bool {
	for _, enabled := range c.Channels {
		if enabled == ch {
			return true
		}
	}
	return false
}

// EffectiveThresholds returns the configured ladder or the default one.
func (c *NotificationConfig) EffectiveThresholds() []int {
	if len(c.Thresholds) == 0 {
		return append([]int(nil), DefaultThresholds...)
	}
	return c.Thresholds
}
