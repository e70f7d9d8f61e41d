package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmailJSConfig - реквизиты сервиса EmailJS.
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
}

// EmailJSSender отправляет код через REST API EmailJS.
type EmailJSSender struct {
	cfg        EmailJSConfig
	httpClient *http.Client
}

func NewEmailJSSender(cfg EmailJSConfig, httpClient *http.Client) *EmailJSSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &EmailJSSender{cfg: cfg, httpClient: httpClient}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// SendOTP заполняет переменные шаблона: to_email, to_name, user_name, user_email, otp_code, reply_to.
func (s *EmailJSSender) SendOTP(ctx context.Context, to Recipient, code string) error {
	payload := emailJSRequest{
		ServiceID:   s.cfg.ServiceID,
		TemplateID:  s.cfg.TemplateID,
		UserID:      s.cfg.PublicKey,
		AccessToken: s.cfg.PrivateKey,
		TemplateParams: map[string]string{
			"to_email":   to.Email,
			"to_name":    to.Name,
			"user_name":  to.Name,
			"user_email": to.Email,
			"otp_code":   code,
			"reply_to":   to.Email,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("emailjs: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emailjs: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("emailjs: статус %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}
