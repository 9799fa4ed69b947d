package usecase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pleaguefc/registration-api/internal/infrastructure/repository/memory"
	"github.com/pleaguefc/registration-api/internal/platform/code"
)

func newRegistrationService(notifier Notifier) (*RegistrationService, *memory.TeamRepository) {
	repo := memory.NewTeamRepository()
	svc := NewRegistrationService(repo, code.NewRandomGenerator(code.DefaultPrefix), notifier, nil)
	return svc, repo
}

func TestRegistrationService_Register_CreatesPendingTeam(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	created, err := svc.Register(t.Context(), RegisterTeamInput{
		TeamName:   "Lions FC",
		Phone:      "9876543210",
		NumPlayers: 9,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if created.PaymentStatus != "pending" {
		t.Fatalf("expected pending status, got %s", created.PaymentStatus)
	}
	if !regexp.MustCompile(`^PLF-[0-9A-F]{6}$`).MatchString(created.UniqueCode) {
		t.Fatalf("unexpected unique code %q", created.UniqueCode)
	}
	if created.ID == "" {
		t.Fatal("expected id to be assigned")
	}
}

func TestRegistrationService_Register_PlayerBoundaries(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	cases := []struct {
		numPlayers int
		wantErr    bool
	}{
		{6, true},
		{7, false},
		{11, false},
		{12, true},
	}

	for i, tc := range cases {
		_, err := svc.Register(t.Context(), RegisterTeamInput{
			TeamName:   "Team " + string(rune('A'+i)),
			Phone:      "9876543210",
			NumPlayers: tc.numPlayers,
		})
		if tc.wantErr && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("numPlayers=%d: expected ErrInvalidInput, got %v", tc.numPlayers, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("numPlayers=%d: unexpected error %v", tc.numPlayers, err)
		}
	}
}

func TestRegistrationService_Register_PhoneValidation(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	for _, phone := range []string{"", "12345", "98765432101", "98765x3210"} {
		_, err := svc.Register(t.Context(), RegisterTeamInput{
			TeamName:   "Phone Check",
			Phone:      phone,
			NumPlayers: 8,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("phone=%q: expected ErrInvalidInput, got %v", phone, err)
		}
	}
}

func TestRegistrationService_Register_CaseInsensitiveDuplicate(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	if _, err := svc.Register(t.Context(), RegisterTeamInput{
		TeamName:   "Thunder United",
		Phone:      "9876543210",
		NumPlayers: 8,
	}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := svc.Register(t.Context(), RegisterTeamInput{
		TeamName:   "  THUNDER united ",
		Phone:      "9123456780",
		NumPlayers: 9,
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, RegistrationNotice) error {
	return errors.New("sink unreachable")
}

func TestRegistrationService_Register_NotifierFailureIsNotFatal(t *testing.T) {
	svc, _ := newRegistrationService(failingNotifier{})

	created, err := svc.Register(t.Context(), RegisterTeamInput{
		TeamName:   "Silent Storm",
		Phone:      "9876543210",
		NumPlayers: 10,
	})
	if err != nil {
		t.Fatalf("register should survive notifier failure: %v", err)
	}
	if created.UniqueCode == "" {
		t.Fatal("expected unique code")
	}
}

func TestRegistrationService_List_NewestFirst(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	for _, name := range []string{"First FC", "Second FC", "Third FC"} {
		if _, err := svc.Register(t.Context(), RegisterTeamInput{
			TeamName:   name,
			Phone:      "9876543210",
			NumPlayers: 7,
		}); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	items, err := svc.List(t.Context())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(items))
	}
	if items[0].Name != "Third FC" || items[2].Name != "First FC" {
		t.Fatalf("expected newest first, got %s .. %s", items[0].Name, items[2].Name)
	}
}

func TestRegistrationService_Rename(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	created, err := svc.Register(t.Context(), RegisterTeamInput{
		TeamName:   "Old Name",
		Phone:      "9876543210",
		NumPlayers: 7,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	renamed, err := svc.Rename(t.Context(), RenameTeamInput{OldName: "Old Name", NewName: "New Name"})
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.Name != "New Name" {
		t.Fatalf("unexpected name %s", renamed.Name)
	}
	if renamed.UniqueCode != created.UniqueCode {
		t.Fatalf("rename must preserve unique code: %s != %s", renamed.UniqueCode, created.UniqueCode)
	}

	if _, err := svc.Rename(t.Context(), RenameTeamInput{OldName: "Missing", NewName: "Whatever"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Rename(t.Context(), RenameTeamInput{OldName: "", NewName: "X"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistrationService_Rename_CollisionWithExistingName(t *testing.T) {
	svc, _ := newRegistrationService(nil)

	for _, name := range []string{"Alpha FC", "Beta FC"} {
		if _, err := svc.Register(t.Context(), RegisterTeamInput{
			TeamName:   name,
			Phone:      "9876543210",
			NumPlayers: 7,
		}); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	_, err := svc.Rename(t.Context(), RenameTeamInput{OldName: "Beta FC", NewName: "alpha fc"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
