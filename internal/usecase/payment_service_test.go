package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/pleaguefc/registration-api/internal/domain/team"
	"github.com/pleaguefc/registration-api/internal/infrastructure/repository/memory"
	"github.com/pleaguefc/registration-api/internal/platform/code"
)

type stubProvider struct {
	order      ProviderOrder
	orderErr   error
	orderCalls int

	event     WebhookEvent
	verifyErr error
}

func (p *stubProvider) CreateOrder(_ context.Context, _ ProviderOrderInput) (ProviderOrder, error) {
	p.orderCalls++
	if p.orderErr != nil {
		return ProviderOrder{}, p.orderErr
	}
	return p.order, nil
}

func (p *stubProvider) VerifyAndParseWebhook(_ []byte, _ WebhookHeaders) (WebhookEvent, error) {
	if p.verifyErr != nil {
		return WebhookEvent{}, p.verifyErr
	}
	return p.event, nil
}

func registerTeam(t *testing.T, repo *memory.TeamRepository, name string) team.Team {
	t.Helper()

	svc := NewRegistrationService(repo, code.NewRandomGenerator(code.DefaultPrefix), nil, nil)
	created, err := svc.Register(t.Context(), RegisterTeamInput{
		TeamName:   name,
		Phone:      "9876543210",
		NumPlayers: 8,
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", name, err)
	}
	return created
}

func TestPaymentService_CreateOrder_LinksRef(t *testing.T) {
	repo := memory.NewTeamRepository()
	registerTeam(t, repo, "Rangers FC")

	provider := &stubProvider{order: ProviderOrder{OrderID: "order-123", OrderToken: "tok-abc"}}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	result, err := svc.CreateOrder(t.Context(), "Rangers FC")
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if result.AlreadyPaid {
		t.Fatal("expected a fresh order, got already-paid")
	}
	if result.OrderID != "order-123" || result.OrderToken != "tok-abc" || result.Amount != 2899 {
		t.Fatalf("unexpected result %+v", result)
	}

	stored, _, err := repo.GetByName(t.Context(), "Rangers FC")
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if stored.PaymentRef != "order-123" {
		t.Fatalf("expected linked ref, got %q", stored.PaymentRef)
	}
	if stored.PaymentStatus != team.StatusPending {
		t.Fatalf("create order must not settle the team, got %s", stored.PaymentStatus)
	}
}

func TestPaymentService_CreateOrder_UnknownTeam(t *testing.T) {
	repo := memory.NewTeamRepository()
	provider := &stubProvider{}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	_, err := svc.CreateOrder(t.Context(), "Ghost FC")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if provider.orderCalls != 0 {
		t.Fatalf("provider must not be called for unknown team, calls=%d", provider.orderCalls)
	}
}

func TestPaymentService_CreateOrder_AlreadyPaidSkipsProvider(t *testing.T) {
	repo := memory.NewTeamRepository()
	registerTeam(t, repo, "Rangers FC")

	provider := &stubProvider{order: ProviderOrder{OrderID: "order-123"}}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	if _, err := svc.CreateOrder(t.Context(), "Rangers FC"); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, applied, found, err := repo.MarkPaidByRef(t.Context(), "order-123"); err != nil || !applied || !found {
		t.Fatalf("settle failed: applied=%t found=%t err=%v", applied, found, err)
	}

	provider.orderCalls = 0
	result, err := svc.CreateOrder(t.Context(), "Rangers FC")
	if err != nil {
		t.Fatalf("create order on paid team failed: %v", err)
	}
	if !result.AlreadyPaid {
		t.Fatal("expected already-paid result")
	}
	if provider.orderCalls != 0 {
		t.Fatalf("provider must not be contacted for a paid team, calls=%d", provider.orderCalls)
	}
}

func TestPaymentService_CreateOrder_ProviderFailureLeavesTeamUntouched(t *testing.T) {
	repo := memory.NewTeamRepository()
	registerTeam(t, repo, "Rangers FC")

	provider := &stubProvider{orderErr: errors.New("gateway down")}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	_, err := svc.CreateOrder(t.Context(), "Rangers FC")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	stored, _, err := repo.GetByName(t.Context(), "Rangers FC")
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if stored.PaymentRef != "" || stored.PaymentStatus != team.StatusPending {
		t.Fatalf("team mutated on provider failure: %+v", stored)
	}
}

func TestPaymentService_HandleWebhook_MarksPaidOnce(t *testing.T) {
	repo := memory.NewTeamRepository()
	registerTeam(t, repo, "Rangers FC")

	provider := &stubProvider{
		order: ProviderOrder{OrderID: "order-123"},
		event: WebhookEvent{OrderID: "order-123", OrderStatus: "PAID", Amount: 2899},
	}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	if _, err := svc.CreateOrder(t.Context(), "Rangers FC"); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if ack := svc.HandleWebhook(t.Context(), []byte(`{}`), WebhookHeaders{}); ack != AckOK {
		t.Fatalf("expected OK ack, got %s", ack)
	}

	stored, _, _ := repo.GetByName(t.Context(), "Rangers FC")
	if stored.PaymentStatus != team.StatusPaid {
		t.Fatalf("expected paid status, got %s", stored.PaymentStatus)
	}
	firstUpdate := stored.UpdatedAt

	// Duplicate delivery: still OK, no second transition.
	if ack := svc.HandleWebhook(t.Context(), []byte(`{}`), WebhookHeaders{}); ack != AckOK {
		t.Fatalf("expected OK ack on duplicate, got %s", ack)
	}
	stored, _, _ = repo.GetByName(t.Context(), "Rangers FC")
	if !stored.UpdatedAt.Equal(firstUpdate) {
		t.Fatal("duplicate delivery must be a no-op")
	}
}

func TestPaymentService_HandleWebhook_InvalidSignature(t *testing.T) {
	repo := memory.NewTeamRepository()
	registerTeam(t, repo, "Rangers FC")

	provider := &stubProvider{verifyErr: errors.New("signature mismatch")}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	if ack := svc.HandleWebhook(t.Context(), []byte(`{}`), WebhookHeaders{}); ack != AckOK {
		t.Fatalf("rejected webhook must still ack OK, got %s", ack)
	}

	stored, _, _ := repo.GetByName(t.Context(), "Rangers FC")
	if stored.PaymentStatus != team.StatusPending {
		t.Fatalf("invalid signature must not change state, got %s", stored.PaymentStatus)
	}
}

func TestPaymentService_HandleWebhook_NonPaidStatusIgnored(t *testing.T) {
	repo := memory.NewTeamRepository()
	provider := &stubProvider{event: WebhookEvent{OrderID: "order-123", OrderStatus: "FAILED"}}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	if ack := svc.HandleWebhook(t.Context(), []byte(`{}`), WebhookHeaders{}); ack != AckIgnored {
		t.Fatalf("expected IGNORED for non-paid status, got %s", ack)
	}
}

func TestPaymentService_HandleWebhook_UnknownRefIgnored(t *testing.T) {
	repo := memory.NewTeamRepository()
	provider := &stubProvider{event: WebhookEvent{OrderID: "order-999", OrderStatus: "SUCCESS"}}
	svc := NewPaymentService(repo, provider, 2899, "INR", nil)

	if ack := svc.HandleWebhook(t.Context(), []byte(`{}`), WebhookHeaders{}); ack != AckIgnored {
		t.Fatalf("expected IGNORED for unknown order, got %s", ack)
	}
}
