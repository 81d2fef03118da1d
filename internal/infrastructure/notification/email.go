package notification

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"metergate/internal/domain/alert"
	"metergate/internal/shared/errors"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// EmailChannel delivers alerts over SMTP to the organization's configured
// recipients.
type EmailChannel struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewEmailChannel(config SMTPConfig) *EmailChannel {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &EmailChannel{
		config: config,
		dialer: dialer,
	}
}

func (c *EmailChannel) Name() alert.ChannelType {
	return alert.ChannelEmail
}

func (c *EmailChannel) Send(ctx context.Context, a *alert.Alert, cfg *alert.NotificationConfig) error {
	if len(cfg.Recipients) == 0 {
		return errors.NewConfigurationError("email channel enabled but no recipients configured")
	}

	subject := fmt.Sprintf("[%s] %s usage alert", a.Severity(), a.Feature())
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Usage Alert</h2>
			<p>%s</p>
			<p>Severity: %s</p>
			<p>Triggered at: %s</p>
		</body>
		</html>
	`, a.Message(), a.Severity(), a.CreatedAt().Format("2006-01-02 15:04:05 MST"))

	plainBody := fmt.Sprintf(`
Usage Alert

%s

Severity: %s
Triggered at: %s
	`, a.Message(), a.Severity(), a.CreatedAt().Format("2006-01-02 15:04:05 MST"))

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(c.config.FromAddress, c.config.FromName))
	m.SetHeader("To", cfg.Recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := c.dialer.DialAndSend(m); err != nil {
		return errors.NewNotificationDeliveryError("failed to send alert email").WithCause(err)
	}
	return nil
}

// SendPlanChangeNotice informs the organization's recipients that their plan
// assignment changed.
func (c *EmailChannel) SendPlanChangeNotice(ctx context.Context, cfg *alert.NotificationConfig, fromSlug, toSlug string, effectiveAt time.Time) error {
	if len(cfg.Recipients) == 0 {
		return errors.NewConfigurationError("plan change notice requested but no recipients configured")
	}

	from := fromSlug
	if from == "" {
		from = "none"
	}
	body := fmt.Sprintf("Your plan has changed from %q to %q, effective %s.",
		from, toSlug, effectiveAt.Format("2006-01-02"))

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(c.config.FromAddress, c.config.FromName))
	m.SetHeader("To", cfg.Recipients...)
	m.SetHeader("Subject", fmt.Sprintf("Plan changed to %s", toSlug))
	m.SetBody("text/plain", body)

	if err := c.dialer.DialAndSend(m); err != nil {
		return errors.NewNotificationDeliveryError("failed to send plan change notice").WithCause(err)
	}
	return nil
}
