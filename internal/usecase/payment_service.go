package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pleaguefc/registration-api/internal/domain/team"
)

// ProviderOrderInput carries what the payment provider needs to open an
// order for a team's registration fee.
type ProviderOrderInput struct {
	TeamName      string
	CustomerPhone string
	Amount        int64
	Currency      string
}

// ProviderOrder is the provider's handle for a created order.
type ProviderOrder struct {
	OrderID    string
	OrderToken string
}

// WebhookHeaders are the authenticity headers the provider attaches to each
// notification delivery.
type WebhookHeaders struct {
	Signature string
	Timestamp string
}

// WebhookEvent is a verified, parsed payment notification.
type WebhookEvent struct {
	OrderID     string
	OrderStatus string
	Amount      int64
}

// PaymentProvider abstracts the payment gateway: synchronous order creation
// plus webhook authenticity verification and parsing.
type PaymentProvider interface {
	CreateOrder(ctx context.Context, input ProviderOrderInput) (ProviderOrder, error)
	VerifyAndParseWebhook(body []byte, headers WebhookHeaders) (WebhookEvent, error)
}

// CreateOrderResult is returned to the client that initiates payment.
type CreateOrderResult struct {
	AlreadyPaid bool
	OrderID     string
	OrderToken  string
	Amount      int64
}

// WebhookAck is the neutral acknowledgement returned to the provider. The
// webhook endpoint never answers anything else, whatever happens internally.
type WebhookAck string

const (
	AckOK      WebhookAck = "OK"
	AckIgnored WebhookAck = "IGNORED"
)

// Provider statuses that mean the payment completed.
var paidStatuses = map[string]struct{}{
	"PAID":    {},
	"SUCCESS": {},
}

type PaymentService struct {
	teamRepo team.Repository
	provider PaymentProvider
	fee      int64
	currency string
	logger   *slog.Logger
}

func NewPaymentService(
	teamRepo team.Repository,
	provider PaymentProvider,
	fee int64,
	currency string,
	logger *slog.Logger,
) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(currency) == "" {
		currency = "INR"
	}

	return &PaymentService{
		teamRepo: teamRepo,
		provider: provider,
		fee:      fee,
		currency: currency,
		logger:   logger,
	}
}

// CreateOrder obtains a provider order for the team's registration fee and
// links its id as the team's payment ref. An already-paid team short-circuits
// without touching the provider or the record. A provider failure leaves the
// record unmutated.
func (s *PaymentService) CreateOrder(ctx context.Context, teamName string) (CreateOrderResult, error) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return CreateOrderResult{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByName(ctx, teamName)
	if err != nil {
		return CreateOrderResult{}, fmt.Errorf("get team by name: %w", err)
	}
	if !exists {
		return CreateOrderResult{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamName)
	}
	if item.PaymentStatus == team.StatusPaid {
		return CreateOrderResult{AlreadyPaid: true, Amount: s.fee}, nil
	}

	order, err := s.provider.CreateOrder(ctx, ProviderOrderInput{
		TeamName:      item.Name,
		CustomerPhone: item.Phone,
		Amount:        s.fee,
		Currency:      s.currency,
	})
	if err != nil {
		return CreateOrderResult{}, fmt.Errorf("%w: create provider order: %v", ErrDependencyUnavailable, err)
	}

	// Single find-and-update guarded on pending status: if a webhook settled
	// the team between the read above and here, the ref stays untouched.
	if _, linked, err := s.teamRepo.LinkPaymentRef(ctx, item.Name, order.OrderID); err != nil {
		return CreateOrderResult{}, fmt.Errorf("link payment ref: %w", err)
	} else if !linked {
		s.logger.InfoContext(ctx, "team settled while creating order, discarding new ref",
			"team", item.Name, "order_id", order.OrderID)
		return CreateOrderResult{AlreadyPaid: true, Amount: s.fee}, nil
	}

	return CreateOrderResult{
		OrderID:    order.OrderID,
		OrderToken: order.OrderToken,
		Amount:     s.fee,
	}, nil
}

// HandleWebhook reconciles an asynchronous payment notification. It is the
// fail-safe wrapper the provider talks to: every path, including panics and
// internal failures, resolves to a neutral acknowledgement so the provider
// never enters a retry storm. Failures are routed to the log channel instead.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, headers WebhookHeaders) (ack WebhookAck) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "webhook handling panicked", "panic", rec)
			ack = AckOK
		}
	}()

	event, err := s.provider.VerifyAndParseWebhook(body, headers)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook rejected, no state change applied", "error", err)
		return AckOK
	}

	if _, paid := paidStatuses[strings.ToUpper(strings.TrimSpace(event.OrderStatus))]; !paid {
		s.logger.InfoContext(ctx, "webhook status ignored",
			"order_id", event.OrderID, "order_status", event.OrderStatus)
		return AckIgnored
	}

	item, applied, found, err := s.teamRepo.MarkPaidByRef(ctx, event.OrderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "webhook reconciliation failed", "order_id", event.OrderID, "error", err)
		return AckOK
	}
	if !found {
		// Not an error: the order may not be linked yet, or it is noise.
		s.logger.InfoContext(ctx, "webhook order matches no team", "order_id", event.OrderID)
		return AckIgnored
	}

	if event.Amount > 0 && event.Amount != s.fee {
		s.logger.WarnContext(ctx, "webhook amount differs from registration fee",
			"team", item.Name, "order_id", event.OrderID, "amount", event.Amount, "fee", s.fee)
	}

	if applied {
		s.logger.InfoContext(ctx, "payment marked paid", "team", item.Name, "order_id", event.OrderID)
	} else {
		// Duplicate delivery; the earlier transition already settled it.
		s.logger.InfoContext(ctx, "webhook duplicate delivery, already paid",
			"team", item.Name, "order_id", event.OrderID)
	}

	return AckOK
}
