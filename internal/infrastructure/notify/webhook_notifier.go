package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"
	"github.com/pleaguefc/registration-api/internal/platform/logging"
	"github.com/pleaguefc/registration-api/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultPoolSize = 8
	sendTimeout     = 10 * time.Second
)

type Config struct {
	WebhookURL string
	Token      string
	Timeout    time.Duration
	PoolSize   int
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// WebhookNotifier posts registration notices to an organizer-owned webhook
// (Slack-style or any JSON sink). Delivery is best effort and runs on a
// bounded worker pool so a slow sink never blocks registration.
type WebhookNotifier struct {
	webhookURL string
	token      string
	httpClient *http.Client
	pool       *ants.Pool
	logger     *logging.Logger
}

func NewWebhookNotifier(cfg Config) (*WebhookNotifier, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, fmt.Errorf("notifier webhook url is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = defaultPoolSize
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create notifier pool: %w", err)
	}

	return &WebhookNotifier{
		webhookURL: webhookURL,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
		pool:       pool,
		logger:     logger,
	}, nil
}

type noticeMessage struct {
	Event      string `json:"event"`
	TeamName   string `json:"team_name"`
	Phone      string `json:"phone"`
	NumPlayers int    `json:"num_players"`
	UniqueCode string `json:"unique_code"`
	Status     string `json:"status"`
}

// Send enqueues the notice for async delivery. It only fails when the pool
// is saturated; delivery errors are logged, not returned.
func (n *WebhookNotifier) Send(ctx context.Context, notice usecase.RegistrationNotice) error {
	err := n.pool.Submit(func() {
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		if err := n.deliver(deliverCtx, notice); err != nil {
			n.logger.WarnContext(deliverCtx, "organizer notification failed",
				"team_name", notice.TeamName,
				"error", err,
			)
		}
	})
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (n *WebhookNotifier) deliver(ctx context.Context, notice usecase.RegistrationNotice) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	payload, err := sonic.Marshal(noticeMessage{
		Event:      "team.registered",
		TeamName:   notice.TeamName,
		Phone:      notice.Phone,
		NumPlayers: notice.NumPlayers,
		UniqueCode: notice.UniqueCode,
		Status:     notice.Status,
	})
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	_, _ = buf.Write(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(buf.B))
	if err != nil {
		return fmt.Errorf("build notice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notice sink status=%d", resp.StatusCode)
	}
	return nil
}

func (n *WebhookNotifier) Close() {
	if n.pool != nil {
		n.pool.Release()
	}
}
