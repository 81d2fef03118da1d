package alerting

import (
	"context"

	"metergate/internal/domain/alert"
	"metergate/internal/infrastructure/notification"
	"metergate/internal/shared/logger"
)

// RetryEnqueuer accepts failed deliveries for later redrive.
type RetryEnqueuer interface {
	Enqueue(ch notification.Channel, a *alert.Alert, cfg *alert.NotificationConfig) bool
}

// Dispatcher fans one alert out to every channel the organization has
// enabled. Channel failures never fail the dispatch; they are handed to the
// retry queue.
type Dispatcher struct {
	configRepo alert.ConfigRepository
	channels   map[alert.ChannelType]notification.Channel
	retry      RetryEnqueuer
	logger     logger.Interface
}

func NewDispatcher(
	configRepo alert.ConfigRepository,
	channels []notification.Channel,
	retry RetryEnqueuer,
	log logger.Interface,
) *Dispatcher {
	byName := make(map[alert.ChannelType]notification.Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}
	return &Dispatcher{
		configRepo: configRepo,
		channels:   byName,
		retry:      retry,
		logger:     log,
	}
}

// Dispatch delivers the alert over each configured channel.
func (d *Dispatcher) Dispatch(ctx context.Context, a *alert.Alert) {
	cfg, err := d.configRepo.Get(ctx, a.OrgSID())
	if err != nil {
		d.logger.Errorw("failed to load notification config, using defaults",
			"error", err, "org_sid", a.OrgSID())
		cfg = alert.DefaultNotificationConfig(a.OrgSID())
	}

	if !cfg.Enabled {
		d.logger.Debugw("notifications disabled, skipping dispatch",
			"org_sid", a.OrgSID(), "alert_sid", a.SID())
		return
	}

	for _, name := range cfg.Channels {
		ch, ok := d.channels[name]
		if !ok {
			d.logger.Warnw("configured channel not available",
				"channel", name, "org_sid", a.OrgSID())
			continue
		}

		if err := ch.Send(ctx, a, cfg); err != nil {
			d.logger.Warnw("alert delivery failed, enqueueing retry",
				"channel", name, "alert_sid", a.SID(), "error", err)
			d.retry.Enqueue(ch, a, cfg)
			continue
		}
		d.logger.Infow("alert delivered",
			"channel", name, "alert_sid", a.SID(), "org_sid", a.OrgSID())
	}
}
