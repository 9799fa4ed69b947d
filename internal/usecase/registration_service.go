package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pleaguefc/registration-api/internal/domain/team"
	"github.com/pleaguefc/registration-api/internal/platform/code"
)

var phoneRegex = regexp.MustCompile(`^[0-9]{10}$`)

// Duplicate-code retries before giving up. With 2^24 code values this only
// matters when crypto/rand misbehaves or the league grows absurdly large.
const maxCodeAttempts = 3

type RegisterTeamInput struct {
	TeamName   string
	Phone      string
	NumPlayers int
}

type RenameTeamInput struct {
	OldName string
	NewName string
}

type RegistrationService struct {
	teamRepo team.Repository
	codes    code.Generator
	notifier Notifier
	logger   *slog.Logger
}

func NewRegistrationService(
	teamRepo team.Repository,
	codes code.Generator,
	notifier Notifier,
	logger *slog.Logger,
) *RegistrationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistrationService{
		teamRepo: teamRepo,
		codes:    codes,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates a new team in pending state with a freshly generated
// unique code. The case-insensitive duplicate check here is the fast path;
// the store's unique index on the normalized name is the race-proof guard.
func (s *RegistrationService) Register(ctx context.Context, input RegisterTeamInput) (team.Team, error) {
	input.TeamName = strings.TrimSpace(input.TeamName)
	input.Phone = strings.TrimSpace(input.Phone)

	if input.TeamName == "" {
		return team.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if input.Phone == "" {
		return team.Team{}, fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}
	if !phoneRegex.MatchString(input.Phone) {
		return team.Team{}, fmt.Errorf("%w: phone must be exactly 10 digits", ErrInvalidInput)
	}
	if input.NumPlayers < team.MinPlayers || input.NumPlayers > team.MaxPlayers {
		return team.Team{}, fmt.Errorf("%w: players must be %d to %d", ErrInvalidInput, team.MinPlayers, team.MaxPlayers)
	}

	if _, exists, err := s.teamRepo.FindByNormalizedName(ctx, input.TeamName); err != nil {
		return team.Team{}, fmt.Errorf("check duplicate team name: %w", err)
	} else if exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrDuplicate, input.TeamName)
	}

	created, err := s.createWithFreshCode(ctx, input)
	if err != nil {
		return team.Team{}, err
	}

	if err := s.notifier.Send(ctx, RegistrationNotice{
		TeamName:   created.Name,
		Phone:      created.Phone,
		NumPlayers: created.NumPlayers,
		UniqueCode: created.UniqueCode,
		Status:     string(created.PaymentStatus),
	}); err != nil {
		// Registration is already durable; surface the failure for audit only.
		s.logger.ErrorContext(ctx, "registration notification failed", "team", created.Name, "error", err)
	}

	return created, nil
}

func (s *RegistrationService) createWithFreshCode(ctx context.Context, input RegisterTeamInput) (team.Team, error) {
	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		uniqueCode, err := s.codes.NewCode()
		if err != nil {
			return team.Team{}, fmt.Errorf("generate unique code: %w", err)
		}

		created, err := s.teamRepo.Create(ctx, team.Team{
			Name:          input.TeamName,
			Phone:         input.Phone,
			NumPlayers:    input.NumPlayers,
			PaymentStatus: team.StatusPending,
			UniqueCode:    uniqueCode,
		})
		switch {
		case err == nil:
			return created, nil
		case errors.Is(err, team.ErrDuplicateName):
			// Lost the check-then-act race; the store index caught it.
			return team.Team{}, fmt.Errorf("%w: team=%s", ErrDuplicate, input.TeamName)
		case errors.Is(err, team.ErrDuplicateCode):
			lastErr = err
			continue
		default:
			return team.Team{}, fmt.Errorf("create team: %w", err)
		}
	}

	return team.Team{}, fmt.Errorf("create team after %d code attempts: %w", maxCodeAttempts, lastErr)
}

// List returns every registration, newest first.
func (s *RegistrationService) List(ctx context.Context) ([]team.Team, error) {
	items, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return items, nil
}

// Rename changes only the team name; unique code, payment ref and status are
// preserved. Admin authentication happens at the transport layer.
func (s *RegistrationService) Rename(ctx context.Context, input RenameTeamInput) (team.Team, error) {
	input.OldName = strings.TrimSpace(input.OldName)
	input.NewName = strings.TrimSpace(input.NewName)

	if input.OldName == "" || input.NewName == "" {
		return team.Team{}, fmt.Errorf("%w: both old and new team names are required", ErrInvalidInput)
	}

	renamed, found, err := s.teamRepo.Rename(ctx, input.OldName, input.NewName)
	if err != nil {
		if errors.Is(err, team.ErrDuplicateName) {
			return team.Team{}, fmt.Errorf("%w: team=%s", ErrDuplicate, input.NewName)
		}
		return team.Team{}, fmt.Errorf("rename team: %w", err)
	}
	if !found {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, input.OldName)
	}

	return renamed, nil
}
