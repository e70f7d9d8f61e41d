package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Capstonepdm/Katipudroid/internal/models"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	AppName  string
}

// SMTPSender отправляет код обычным письмом через SMTP с PLAIN авторизацией.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) SendOTP(ctx context.Context, to Recipient, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	greeting := "Hello"
	if name := strings.TrimSpace(to.Name); name != "" {
		greeting = "Hello " + name
	}
	body := fmt.Sprintf(
		"%s,\n\n"+
			"Use the code below to confirm your email and publish your feedback for %s:\n\n"+
			"Verification Code: %s\n\n"+
			"This code will expire in %d minutes. If you did not request it, please ignore this email.\n\n"+
			"Best regards,\nThe %s Team",
		greeting, s.cfg.AppName, code, int(models.OTPTTL.Minutes()), s.cfg.AppName)

	return s.send(to.Email, fmt.Sprintf("%s - Your Verification Code", s.cfg.AppName), body)
}

func (s *SMTPSender) send(toEmail, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	headers := []string{
		fmt.Sprintf("From: %s", s.cfg.From),
		fmt.Sprintf("To: %s", toEmail),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}
	message := strings.Join(headers, "\r\n")

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if err := s.sendMail(addr, auth, s.cfg.From, []string{toEmail}, []byte(message)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}
