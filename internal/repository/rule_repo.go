package repository

import (
	"context"
	"database/sql"

	"his-appraisal/internal/domain"
)

// RuleRepo 考核方案与细则（打分期间只读）。
type RuleRepo interface {
	// CheckSystemOfStaff 员工挂接的考核方案；无考核返回 (nil, nil)
	CheckSystemOfStaff(ctx context.Context, staffID string) (*domain.CheckSystem, error)
	ListRules(ctx context.Context, checkID string) ([]domain.CheckRule, error)
}

type PostgresRuleRepo struct {
	db *sql.DB
}

func NewPostgresRuleRepo(db *sql.DB) *PostgresRuleRepo {
	return &PostgresRuleRepo{db: db}
}

func (r *PostgresRuleRepo) CheckSystemOfStaff(ctx context.Context, staffID string) (*domain.CheckSystem, error) {
	q := `
		select cs.id, cs.hospital, cs.name
		from staff_check_mapping scm
		       inner join check_system cs on scm.check_id = cs.id
		where scm.staff = $1
	`
	var s domain.CheckSystem
	err := r.db.QueryRowContext(ctx, q, staffID).Scan(&s.ID, &s.HospitalID, &s.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRuleRepo) ListRules(ctx context.Context, checkID string) ([]domain.CheckRule, error) {
	q := `
		select id,
		       check_id,
		       name,
		       auto,
		       coalesce(detail, ''),
		       coalesce(metric, ''),
		       coalesce(operator, ''),
		       coalesce(value, 0),
		       score
		from check_rule
		where check_id = $1
		order by created_at
	`
	rows, err := r.db.QueryContext(ctx, q, checkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CheckRule
	for rows.Next() {
		var c domain.CheckRule
		var metric, operator string
		if err := rows.Scan(&c.ID, &c.CheckID, &c.Name, &c.Auto, &c.Detail, &metric, &operator, &c.Value, &c.Score); err != nil {
			return nil, err
		}
		c.Metric = domain.MetricCode(metric)
		c.Operator = domain.RuleOperator(operator)
		out = append(out, c)
	}
	return out, rows.Err()
}
