package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pleaguefc/registration-api/internal/domain/team"
)

// TeamRepository keeps registrations in memory with the same uniqueness and
// atomicity guarantees as the postgres store. Used by tests and DB-less runs.
type TeamRepository struct {
	mu    sync.RWMutex
	teams []team.Team
	seq   int
	now   func() time.Time
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{now: time.Now}
}

// SetClock overrides the timestamp source. Test hook.
func (r *TeamRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if now != nil {
		r.now = now
	}
}

func (r *TeamRepository) Create(_ context.Context, item team.Team) (team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := team.NormalizeName(item.Name)
	for _, existing := range r.teams {
		if team.NormalizeName(existing.Name) == normalized {
			return team.Team{}, team.ErrDuplicateName
		}
		if existing.UniqueCode == item.UniqueCode {
			return team.Team{}, team.ErrDuplicateCode
		}
	}

	r.seq++
	now := r.now().UTC()
	item.ID = fmt.Sprintf("team-%06d", r.seq)
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.PaymentStatus == "" {
		item.PaymentStatus = team.StatusPending
	}
	r.teams = append(r.teams, item)

	return item, nil
}

func (r *TeamRepository) GetByName(_ context.Context, name string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.teams {
		if item.Name == name {
			return item, true, nil
		}
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) FindByNormalizedName(_ context.Context, name string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := team.NormalizeName(name)
	for _, item := range r.teams {
		if team.NormalizeName(item.Name) == normalized {
			return item, true, nil
		}
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Insertion order is creation order; newest first means walking backwards.
	out := make([]team.Team, 0, len(r.teams))
	for idx := len(r.teams) - 1; idx >= 0; idx-- {
		out = append(out, r.teams[idx])
	}

	return out, nil
}

func (r *TeamRepository) LinkPaymentRef(_ context.Context, name, ref string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for idx := range r.teams {
		if r.teams[idx].Name != name && r.teams[idx].PaymentRef == ref {
			return team.Team{}, false, team.ErrDuplicateRef
		}
	}

	for idx := range r.teams {
		if r.teams[idx].Name != name {
			continue
		}
		if r.teams[idx].PaymentStatus != team.StatusPending {
			return team.Team{}, false, nil
		}
		r.teams[idx].PaymentRef = ref
		r.teams[idx].UpdatedAt = r.now().UTC()
		return r.teams[idx], true, nil
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) MarkPaidByRef(_ context.Context, ref string) (team.Team, bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for idx := range r.teams {
		if r.teams[idx].PaymentRef != ref || ref == "" {
			continue
		}
		if r.teams[idx].PaymentStatus == team.StatusPaid {
			return r.teams[idx], false, true, nil
		}
		r.teams[idx].PaymentStatus = team.StatusPaid
		r.teams[idx].UpdatedAt = r.now().UTC()
		return r.teams[idx], true, true, nil
	}

	return team.Team{}, false, false, nil
}

func (r *TeamRepository) Rename(_ context.Context, oldName, newName string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := team.NormalizeName(newName)
	for idx := range r.teams {
		if r.teams[idx].Name != oldName && team.NormalizeName(r.teams[idx].Name) == normalized {
			return team.Team{}, false, team.ErrDuplicateName
		}
	}

	for idx := range r.teams {
		if r.teams[idx].Name != oldName {
			continue
		}
		r.teams[idx].Name = newName
		r.teams[idx].UpdatedAt = r.now().UTC()
		return r.teams[idx], true, nil
	}

	return team.Team{}, false, nil
}
