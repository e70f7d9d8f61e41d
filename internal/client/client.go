package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Capstonepdm/Katipudroid/internal/dto"
	"github.com/Capstonepdm/Katipudroid/internal/gate"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

// Client ходит в HTTP API сервиса отзывов. Реализует gate.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ gate.Backend = (*Client)(nil)

// New создаёт клиента. httpClient может быть nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// envelope - общий формат ответа API.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type verifyResponse struct {
	envelope
	VerificationToken string    `json:"verification_token"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type submitResponse struct {
	envelope
	ID string `json:"id"`
}

// ListResponse - страница публичного списка отзывов.
type ListResponse struct {
	Feedbacks  []dto.FeedbackResponse `json:"feedbacks"`
	TotalCount int                    `json:"total_count"`
	Timestamp  string                 `json:"timestamp"`
}

type listResponse struct {
	envelope
	ListResponse
}

// HealthStatus - ответ /health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type healthResponse struct {
	envelope
	HealthStatus
}

func (c *Client) IssueOTP(ctx context.Context, email, name string) error {
	var out envelope
	return c.do(ctx, http.MethodPost, "/api/otp/send", "", map[string]string{"email": email, "name": name}, &out)
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	var out verifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/otp/verify", "", map[string]string{"email": email, "code": code}, &out); err != nil {
		return "", err
	}
	if out.VerificationToken == "" {
		return "", apperror.Internal(fmt.Errorf("client: пустой verification_token"))
	}
	return out.VerificationToken, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, form gate.Form, token string) (string, error) {
	body := map[string]any{
		"name":    form.Name,
		"email":   form.Email,
		"message": form.Message,
		"rating":  form.Rating,
	}
	var out submitResponse
	if err := c.do(ctx, http.MethodPost, "/api/feedbacks", token, body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// List загружает последние отзывы. limit <= 0 означает без ограничения.
func (c *Client) List(ctx context.Context, limit int) (*ListResponse, error) {
	path := "/api/feedbacks"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out listResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return &out.ListResponse, nil
}

// Health опрашивает /health. Нездоровый сервис возвращает ошибку.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out healthResponse
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &out); err != nil {
		return nil, err
	}
	return &out.HealthStatus, nil
}

// do выполняет запрос и раскладывает конверт. Ответ с success=false
// превращается в *apperror.AppError с кодом сервера.
func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperror.Internal(fmt.Errorf("client: сериализация запроса: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.Internal(fmt.Errorf("client: создание запроса: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.StorageUnavailable(err, "Service is unreachable, please try again later")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.StorageUnavailable(err, "Service is unreachable, please try again later")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.Internal(fmt.Errorf("client: %s %s: статус %d, некорректный ответ: %w", method, path, resp.StatusCode, err))
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		return remoteError(resp.StatusCode, env)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Internal(fmt.Errorf("client: разбор ответа %s: %w", path, err))
	}
	return nil
}

func remoteError(status int, env envelope) *apperror.AppError {
	code := apperror.ErrorCode(env.Code)
	if code == "" {
		switch {
		case status == http.StatusServiceUnavailable:
			code = apperror.ErrCodeStorageUnavailable
		case status >= http.StatusInternalServerError:
			code = apperror.ErrCodeInternal
		default:
			code = apperror.ErrCodeBadRequest
		}
	}
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return apperror.New(code, msg)
}
