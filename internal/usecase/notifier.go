package usecase

import "context"

// RegistrationNotice summarizes a new registration for the organizer.
type RegistrationNotice struct {
	TeamName   string
	Phone      string
	NumPlayers int
	UniqueCode string
	Status     string
}

// Notifier delivers organizer notifications. Delivery is best-effort: a
// registration is durable once the store write succeeds, independent of
// whether the notice arrives.
type Notifier interface {
	Send(ctx context.Context, notice RegistrationNotice) error
}

type noopNotifier struct{}

func (noopNotifier) Send(_ context.Context, _ RegistrationNotice) error {
	return nil
}
