package team

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus tracks the registration fee lifecycle. The only legal
// transition is StatusPending -> StatusPaid.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

const (
	MinPlayers = 7
	MaxPlayers = 11
)

// Team is a single league registration.
type Team struct {
	ID            string
	Name          string
	Phone         string
	NumPlayers    int
	PaymentStatus PaymentStatus
	UniqueCode    string
	// PaymentRef holds the provider order id linking this team to an
	// outstanding or settled payment. Empty until an order is created.
	PaymentRef string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if strings.TrimSpace(t.Phone) == "" {
		return fmt.Errorf("team phone is required")
	}
	if t.NumPlayers < MinPlayers || t.NumPlayers > MaxPlayers {
		return fmt.Errorf("team players must be between %d and %d", MinPlayers, MaxPlayers)
	}
	if strings.TrimSpace(t.UniqueCode) == "" {
		return fmt.Errorf("team unique code is required")
	}

	return nil
}

// NormalizeName canonicalizes a team name for uniqueness checks. Two names
// that normalize equal are the same team.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
