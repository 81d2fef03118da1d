package notification

import (
	"context"

	"metergate/internal/domain/alert"
)

// Channel delivers one alert over one transport. Implementations must be
// safe for concurrent use; failed deliveries are retried by the queue.
type Channel interface {
	Name() alert.ChannelType
	Send(ctx context.Context, a *alert.Alert, cfg *alert.NotificationConfig) error
}
