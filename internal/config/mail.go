package config

import (
	"context"

	"NoticeBoard/internal/notification"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewMailSender picks the notification backend named by MAIL_PROVIDER.
func NewMailSender(lc fx.Lifecycle, cfg *Config, logger *zap.Logger) notification.Sender {
	var sender notification.Sender
	switch cfg.Mail.Provider {
	case MailResend:
		sender = notification.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.From, logger)
	case MailSMTP:
		sender = notification.NewSMTPSender(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUser, cfg.Mail.SMTPPassword, cfg.Mail.From, logger)
	default:
		sender = notification.NewLogSender(logger)
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("email service initialized", zap.String("provider", cfg.Mail.Provider))
			return nil
		},
	})
	return sender
}
