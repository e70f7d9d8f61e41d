// Package mail доставляет одноразовые коды: через EmailJS REST API, SMTP или в лог.
package mail

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Capstonepdm/Katipudroid/internal/config"
	"github.com/Capstonepdm/Katipudroid/internal/logger"
)

// Recipient - адресат письма с кодом.
type Recipient struct {
	Email string
	Name  string
}

// Sender отправляет код подтверждения.
type Sender interface {
	SendOTP(ctx context.Context, to Recipient, code string) error
}

// New выбирает драйвер по конфигурации.
func New(cfg config.MailConfig, appName string) (Sender, error) {
	switch cfg.Driver {
	case config.MailDriverEmailJS:
		return NewEmailJSSender(EmailJSConfig{
			Endpoint:   cfg.EmailJSEndpoint,
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
		}, nil), nil
	case config.MailDriverSMTP:
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			AppName:  appName,
		}), nil
	case config.MailDriverLog:
		return NewLogSender(nil), nil
	default:
		return nil, fmt.Errorf("mail: неизвестный драйвер %q", cfg.Driver)
	}
}

// LogSender пишет код в лог. Только для разработки.
type LogSender struct {
	log *logrus.Entry
}

func NewLogSender(entry *logrus.Entry) *LogSender {
	if entry == nil {
		entry = logger.WithComponent("mail")
	}
	return &LogSender{log: entry}
}

func (s *LogSender) SendOTP(_ context.Context, to Recipient, code string) error {
	s.log.WithFields(logrus.Fields{
		"to":   to.Email,
		"name": to.Name,
		"code": code,
	}).Warn("OTP не отправлен (MAIL_DRIVER=log)")
	return nil
}
