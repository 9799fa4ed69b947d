package postgres

import (
	"database/sql"
	"time"

	"github.com/pleaguefc/registration-api/internal/domain/team"
)

type teamTableModel struct {
	ID             int64          `db:"id"`
	PublicID       string         `db:"public_id"`
	Name           string         `db:"team_name"`
	NameNormalized string         `db:"name_normalized"`
	Phone          string         `db:"phone"`
	NumPlayers     int            `db:"num_players"`
	PaymentStatus  string         `db:"payment_status"`
	UniqueCode     string         `db:"unique_code"`
	PaymentRef     sql.NullString `db:"payment_ref"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:            m.PublicID,
		Name:          m.Name,
		Phone:         m.Phone,
		NumPlayers:    m.NumPlayers,
		PaymentStatus: team.PaymentStatus(m.PaymentStatus),
		UniqueCode:    m.UniqueCode,
		PaymentRef:    m.PaymentRef.String,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
