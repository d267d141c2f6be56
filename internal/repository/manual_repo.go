package repository

import (
	"context"
	"database/sql"
	"time"

	"his-appraisal/internal/domain"

	"github.com/lib/pq"
)

// ManualRepo 手工数据流水。
type ManualRepo interface {
	// Entries 指定手工数据项在时间窗内、范围员工名下的流水
	Entries(ctx context.Context, itemID string, staffIDs []string, start, end time.Time) ([]domain.Observation, error)
}

type PostgresManualRepo struct {
	db *sql.DB
}

func NewPostgresManualRepo(db *sql.DB) *PostgresManualRepo {
	return &PostgresManualRepo{db: db}
}

func (r *PostgresManualRepo) Entries(ctx context.Context, itemID string, staffIDs []string, start, end time.Time) ([]domain.Observation, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	q := `
		select detail.value, detail.date
		from manual_data_detail detail
		       inner join manual_data md on detail.item = md.id
		where detail.item = $1
		  and detail.date >= $2
		  and detail.date < $3
		  and detail.staff = any($4)
		order by detail.date
	`
	rows, err := r.db.QueryContext(ctx, q, itemID, start, end, pq.Array(staffIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.Value, &o.Date); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
