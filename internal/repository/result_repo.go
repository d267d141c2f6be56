package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"his-appraisal/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ResultRepo 打分结果的持久化层。每个 (staff, day) 的写入是独立事务，
// 批量重算中单个员工失败不影响其他员工。
type ResultRepo interface {
	// ReplaceWorkResult 整体替换某员工某日的工分结果（删后插，同一事务）
	ReplaceWorkResult(ctx context.Context, r *domain.WorkResult) error
	// GetAssessResult 不存在返回 (nil, nil)
	GetAssessResult(ctx context.Context, staffID string, day time.Time) (*domain.AssessResult, error)
	// SaveAssessResult 按 (staff, day) 原子 upsert
	SaveAssessResult(ctx context.Context, r *domain.AssessResult) error
	// UpsertExtraScore 员工月度附加分
	UpsertExtraScore(ctx context.Context, staffID string, month time.Time, score decimal.Decimal) error
	// SumWorkScore 机构时间窗内的工分合计
	SumWorkScore(ctx context.Context, hospitalID string, start, end time.Time) (decimal.Decimal, error)
	// WorkItemTotals 机构时间窗内按工分项汇总
	WorkItemTotals(ctx context.Context, hospitalID string, start, end time.Time) ([]domain.ItemTotal, error)
}

type PostgresResultRepo struct {
	db *sql.DB
}

func NewPostgresResultRepo(db *sql.DB) *PostgresResultRepo {
	return &PostgresResultRepo{db: db}
}

func (r *PostgresResultRepo) ReplaceWorkResult(ctx context.Context, res *domain.WorkResult) error {
	res.Version = domain.WorkResultVersion
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal work result: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`delete from work_result where staff_id = $1 and day = $2`,
		res.StaffID, res.Day,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into work_result (id, staff_id, day, payload, created_at, updated_at)
		 values ($1, $2, $3, $4, now(), now())`,
		uuid.NewString(), res.StaffID, res.Day, payload,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresResultRepo) GetAssessResult(ctx context.Context, staffID string, day time.Time) (*domain.AssessResult, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`select payload from assess_result where staff_id = $1 and day = $2`,
		staffID, day,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var res domain.AssessResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("unmarshal assess result: %w", err)
	}
	res.StaffID = staffID
	res.Day = day
	return &res, nil
}

func (r *PostgresResultRepo) SaveAssessResult(ctx context.Context, res *domain.AssessResult) error {
	res.Version = domain.AssessResultVersion
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal assess result: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`insert into assess_result (id, staff_id, day, payload, created_at, updated_at)
		 values ($1, $2, $3, $4, now(), now())
		 on conflict (staff_id, day)
		 do update set payload = excluded.payload, updated_at = now()`,
		uuid.NewString(), res.StaffID, res.Day, payload,
	)
	return err
}

func (r *PostgresResultRepo) UpsertExtraScore(ctx context.Context, staffID string, month time.Time, score decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`insert into staff_extra_score (staff, month, score, created_at, updated_at)
		 values ($1, $2, $3, now(), now())
		 on conflict (staff, month)
		 do update set score = excluded.score, updated_at = now()`,
		staffID, month, score,
	)
	return err
}

func (r *PostgresResultRepo) SumWorkScore(ctx context.Context, hospitalID string, start, end time.Time) (decimal.Decimal, error) {
	q := `
		select coalesce(sum((elem ->> 'score')::numeric), 0)
		from work_result wr
		       inner join staff on wr.staff_id = staff.id,
		     jsonb_array_elements(wr.payload -> 'items') elem
		where staff.hospital = $1
		  and wr.day >= $2
		  and wr.day < $3
	`
	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, hospitalID, start, end).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *PostgresResultRepo) WorkItemTotals(ctx context.Context, hospitalID string, start, end time.Time) ([]domain.ItemTotal, error) {
	q := `
		select elem ->> 'id',
		       max(elem ->> 'name'),
		       sum((elem ->> 'score')::numeric)
		from work_result wr
		       inner join staff on wr.staff_id = staff.id,
		     jsonb_array_elements(wr.payload -> 'items') elem
		where staff.hospital = $1
		  and wr.day >= $2
		  and wr.day < $3
		group by elem ->> 'id'
	`
	rows, err := r.db.QueryContext(ctx, q, hospitalID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ItemTotal
	for rows.Next() {
		var t domain.ItemTotal
		if err := rows.Scan(&t.ItemID, &t.Name, &t.Score); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
