package cashfree

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/pleaguefc/registration-api/internal/platform/logging"
	"github.com/pleaguefc/registration-api/internal/platform/resilience"
	"github.com/pleaguefc/registration-api/internal/usecase"
)

const (
	defaultBaseURL    = "https://sandbox.cashfree.com/pg"
	apiVersion        = "2023-08-01"
	maxResponseBytes  = 1 << 20
	defaultNoteFormat = "League registration fee for %s"
)

var (
	errCashfreeTransient = crerr.New("cashfree transient failure")
	ErrBadSignature      = crerr.New("webhook signature mismatch")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AppID          string
	Secret         string
	WebhookSecret  string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the Cashfree payment gateway: order creation over the PG
// API plus webhook signature verification. It implements
// usecase.PaymentProvider.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	appID          string
	secret         string
	webhookSecret  string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		webhookSecret = strings.TrimSpace(cfg.Secret)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		appID:          strings.TrimSpace(cfg.AppID),
		secret:         strings.TrimSpace(cfg.Secret),
		webhookSecret:  webhookSecret,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
}

type createOrderRequest struct {
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	OrderNote       string          `json:"order_note"`
	CustomerDetails customerDetails `json:"customer_details"`
}

type createOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

func (c *Client) CreateOrder(ctx context.Context, input usecase.ProviderOrderInput) (usecase.ProviderOrder, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "cashfree circuit breaker rejected request", "state", c.breaker.State())
			return usecase.ProviderOrder{}, fmt.Errorf("payment provider is temporarily unavailable: %w", err)
		}
	}

	payload, err := sonic.Marshal(createOrderRequest{
		OrderAmount:   float64(input.Amount),
		OrderCurrency: input.Currency,
		OrderNote:     fmt.Sprintf(defaultNoteFormat, input.TeamName),
		CustomerDetails: customerDetails{
			CustomerID:    "team-" + input.CustomerPhone,
			CustomerPhone: input.CustomerPhone,
		},
	})
	if err != nil {
		return usecase.ProviderOrder{}, fmt.Errorf("encode create order request: %w", err)
	}

	raw, err := c.executeRequest(ctx, c.baseURL+"/orders", payload)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errCashfreeTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return usecase.ProviderOrder{}, err
	}

	var resp createOrderResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return usecase.ProviderOrder{}, fmt.Errorf("decode create order response: %w", err)
	}
	if strings.TrimSpace(resp.OrderID) == "" {
		return usecase.ProviderOrder{}, fmt.Errorf("provider returned empty order id")
	}

	return usecase.ProviderOrder{
		OrderID:    resp.OrderID,
		OrderToken: resp.PaymentSessionID,
	}, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-api-version", apiVersion)
		req.Header.Set("x-client-id", c.appID)
		req.Header.Set("x-client-secret", c.secret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errCashfreeTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errCashfreeTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errCashfreeTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "cashfree request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// webhookPayload accepts both the camelCase shape Cashfree's older webhooks
// send and the snake_case shape of the PG API.
type webhookPayload struct {
	OrderID      string  `json:"orderId"`
	OrderStatus  string  `json:"orderStatus"`
	OrderAmount  float64 `json:"orderAmount"`
	OrderIDSnake string  `json:"order_id"`
	StatusSnake  string  `json:"order_status"`
	AmountSnake  float64 `json:"order_amount"`
}

// VerifyAndParseWebhook authenticates a raw webhook delivery and extracts the
// order outcome. The signature is base64(HMAC-SHA256(timestamp + body))
// keyed with the webhook secret, compared in constant time.
func (c *Client) VerifyAndParseWebhook(body []byte, headers usecase.WebhookHeaders) (usecase.WebhookEvent, error) {
	signature := strings.TrimSpace(headers.Signature)
	if signature == "" {
		return usecase.WebhookEvent{}, crerr.Wrap(ErrBadSignature, "missing signature header")
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(headers.Timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return usecase.WebhookEvent{}, ErrBadSignature
	}

	var payload webhookPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return usecase.WebhookEvent{}, fmt.Errorf("decode webhook payload: %w", err)
	}

	event := usecase.WebhookEvent{
		OrderID:     firstNonEmpty(payload.OrderID, payload.OrderIDSnake),
		OrderStatus: firstNonEmpty(payload.OrderStatus, payload.StatusSnake),
		Amount:      int64(maxFloat(payload.OrderAmount, payload.AmountSnake)),
	}
	if event.OrderID == "" {
		return usecase.WebhookEvent{}, fmt.Errorf("webhook payload has no order id")
	}

	return event, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const maxLen = 256
	text := strings.TrimSpace(string(raw))
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
