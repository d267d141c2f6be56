package repository

import (
	"context"
	"database/sql"
	"time"
)

// SettleRepo 月度结算标记。结算后该月的工分/考核分/附加分冻结。
type SettleRepo interface {
	IsSettled(ctx context.Context, hospitalID string, month time.Time) (bool, error)
	// Settle 单向操作：引擎内不提供回退
	Settle(ctx context.Context, hospitalID string, month time.Time) error
	// ListUnsettledHospitals 该月尚未结算的机构
	ListUnsettledHospitals(ctx context.Context, month time.Time) ([]string, error)
}

type PostgresSettleRepo struct {
	db *sql.DB
}

func NewPostgresSettleRepo(db *sql.DB) *PostgresSettleRepo {
	return &PostgresSettleRepo{db: db}
}

func (r *PostgresSettleRepo) IsSettled(ctx context.Context, hospitalID string, month time.Time) (bool, error) {
	var settled bool
	err := r.db.QueryRowContext(ctx,
		`select settle from hospital_settle where hospital = $1 and month = $2`,
		hospitalID, month,
	).Scan(&settled)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return settled, nil
}

func (r *PostgresSettleRepo) Settle(ctx context.Context, hospitalID string, month time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`insert into hospital_settle (hospital, month, settle, created_at, updated_at)
		 values ($1, $2, true, now(), now())
		 on conflict (hospital, month)
		 do update set settle = true, updated_at = now()`,
		hospitalID, month,
	)
	return err
}

func (r *PostgresSettleRepo) ListUnsettledHospitals(ctx context.Context, month time.Time) ([]string, error) {
	q := `
		select h.id
		from hospital h
		       left join hospital_settle hs on h.id = hs.hospital and hs.month = $1
		where coalesce(hs.settle, false) = false
	`
	rows, err := r.db.QueryContext(ctx, q, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
