package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"his-appraisal/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PublicHealthRepo 公卫记录查询。表名/日期列/过滤条件来自来源目录的
// 数据表配置（系统内置，不含用户输入），仅参数走占位符。
type PublicHealthRepo interface {
	// Records operatorIDs 非空时按公卫操作员过滤，否则按机构归属
	Records(ctx context.Context, ds *domain.PublicHealthDatasource, hospitalID string, operatorIDs []string, start, end time.Time) ([]domain.Observation, error)
}

type PostgresPublicHealthRepo struct {
	db *sql.DB
}

func NewPostgresPublicHealthRepo(db *sql.DB) *PostgresPublicHealthRepo {
	return &PostgresPublicHealthRepo{db: db}
}

func (r *PostgresPublicHealthRepo) Records(ctx context.Context, ds *domain.PublicHealthDatasource, hospitalID string, operatorIDs []string, start, end time.Time) ([]domain.Observation, error) {
	var b strings.Builder
	args := []any{start, end, hospitalID}

	fmt.Fprintf(&b, `select 1 as value, %s as date from %s main`, ds.DateColumn, ds.Table)
	fmt.Fprintf(&b, ` where %s >= $1 and %s < $2`, ds.DateColumn, ds.DateColumn)
	b.WriteString(` and main.operate_organization = $3`)
	if len(operatorIDs) > 0 {
		args = append(args, pq.Array(operatorIDs))
		fmt.Fprintf(&b, ` and main.operator_id = any($%d)`, len(args))
	}
	for _, cond := range ds.Columns {
		b.WriteString(` and ` + cond)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	one := decimal.NewFromInt(1)
	for rows.Next() {
		var v int
		var date time.Time
		if err := rows.Scan(&v, &date); err != nil {
			return nil, err
		}
		out = append(out, domain.Observation{Date: date, Value: one})
	}
	return out, rows.Err()
}
