package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pleaguefc/registration-api/internal/domain/team"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `id, public_id, team_name, name_normalized, phone, num_players, payment_status, unique_code, payment_ref, created_at, updated_at`

func (r *TeamRepository) Create(ctx context.Context, item team.Team) (team.Team, error) {
	const query = `
INSERT INTO teams (team_name, name_normalized, phone, num_players, payment_status, unique_code)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + teamColumns

	var row teamTableModel
	err := r.db.GetContext(ctx, &row, query,
		item.Name,
		team.NormalizeName(item.Name),
		item.Phone,
		item.NumPlayers,
		string(item.PaymentStatus),
		item.UniqueCode,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "teams_name_normalized"):
			return team.Team{}, team.ErrDuplicateName
		case isUniqueViolation(err, "teams_unique_code"):
			return team.Team{}, team.ErrDuplicateCode
		default:
			return team.Team{}, fmt.Errorf("insert team: %w", err)
		}
	}

	return row.toDomain(), nil
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams WHERE team_name = $1`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by name: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) FindByNormalizedName(ctx context.Context, name string) (team.Team, bool, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams WHERE name_normalized = $1`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, team.NormalizeName(name)); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("find team by normalized name: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams ORDER BY created_at DESC, id DESC`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TeamRepository) LinkPaymentRef(ctx context.Context, name, ref string) (team.Team, bool, error) {
	// Guarded on pending status so a concurrently settled team keeps its
	// original ref. Single statement, no read-modify-write window.
	const query = `
UPDATE teams
SET payment_ref = $2, updated_at = NOW()
WHERE team_name = $1
  AND payment_status = 'pending'
RETURNING ` + teamColumns

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, name, ref); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		if isUniqueViolation(err, "teams_payment_ref") {
			return team.Team{}, false, team.ErrDuplicateRef
		}
		return team.Team{}, false, fmt.Errorf("link payment ref: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) MarkPaidByRef(ctx context.Context, ref string) (team.Team, bool, bool, error) {
	const updateQuery = `
UPDATE teams
SET payment_status = 'paid', updated_at = NOW()
WHERE payment_ref = $1
  AND payment_status = 'pending'
RETURNING ` + teamColumns

	var row teamTableModel
	err := r.db.GetContext(ctx, &row, updateQuery, ref)
	if err == nil {
		return row.toDomain(), true, true, nil
	}
	if !isNotFound(err) {
		return team.Team{}, false, false, fmt.Errorf("mark team paid: %w", err)
	}

	// No pending team transitioned: either a duplicate delivery for an
	// already-paid team, or an unknown ref.
	const selectQuery = `SELECT ` + teamColumns + ` FROM teams WHERE payment_ref = $1`
	if err := r.db.GetContext(ctx, &row, selectQuery, ref); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, false, nil
		}
		return team.Team{}, false, false, fmt.Errorf("get team by payment ref: %w", err)
	}

	return row.toDomain(), false, true, nil
}

func (r *TeamRepository) Rename(ctx context.Context, oldName, newName string) (team.Team, bool, error) {
	const query = `
UPDATE teams
SET team_name = $2, name_normalized = $3, updated_at = NOW()
WHERE team_name = $1
RETURNING ` + teamColumns

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, oldName, newName, team.NormalizeName(newName)); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		if isUniqueViolation(err, "teams_name_normalized") {
			return team.Team{}, false, team.ErrDuplicateName
		}
		return team.Team{}, false, fmt.Errorf("rename team: %w", err)
	}

	return row.toDomain(), true, nil
}
