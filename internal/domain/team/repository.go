package team

import (
	"context"
	"errors"
)

// Store-level uniqueness violations surfaced by repository implementations.
var (
	ErrDuplicateName = errors.New("team name already registered")
	ErrDuplicateCode = errors.New("unique code already assigned")
	ErrDuplicateRef  = errors.New("payment ref already linked to another team")
)

// Repository describes team persistence needs from use cases. Every mutating
// call is a single atomic store operation so concurrent requests cannot race
// a lost update.
type Repository interface {
	// Create persists a new team. Duplicate normalized names map to
	// ErrDuplicateName, duplicate codes to ErrDuplicateCode.
	Create(ctx context.Context, item Team) (Team, error)

	// GetByName matches the team name exactly.
	GetByName(ctx context.Context, name string) (Team, bool, error)

	// FindByNormalizedName matches ignoring case and surrounding whitespace.
	FindByNormalizedName(ctx context.Context, name string) (Team, bool, error)

	// List returns all teams, newest first.
	List(ctx context.Context) ([]Team, error)

	// LinkPaymentRef stores the provider order id on a still-pending team in
	// one find-and-update. Returns false when the team is missing or already
	// paid, leaving the record untouched.
	LinkPaymentRef(ctx context.Context, name, ref string) (Team, bool, error)

	// MarkPaidByRef transitions the team whose PaymentRef equals ref from
	// pending to paid. applied reports whether this call performed the
	// transition; found reports whether any team carries the ref at all, so
	// duplicate deliveries are distinguishable from noise.
	MarkPaidByRef(ctx context.Context, ref string) (item Team, applied bool, found bool, err error)

	// Rename changes only the team name. A collision with another team's
	// normalized name maps to ErrDuplicateName.
	Rename(ctx context.Context, oldName, newName string) (Team, bool, error)
}
