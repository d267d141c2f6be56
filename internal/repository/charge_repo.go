package repository

import (
	"context"
	"database/sql"
	"time"

	"his-appraisal/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ChargeRepo HIS 收费流水（门诊/住院）与诊疗人次计数。
type ChargeRepo interface {
	// OutpatientCharges 按收费项目（精确或带点前缀匹配）和医生集合查询门诊收费明细
	OutpatientCharges(ctx context.Context, source string, doctorIDs []string, start, end time.Time) ([]domain.Observation, error)
	// InpatientCharges 同上，但通过收费主单关联住院记录，按出院日期过滤
	InpatientCharges(ctx context.Context, source string, doctorIDs []string, start, end time.Time) ([]domain.Observation, error)
	// VisitCounts 机构某类型（门诊/住院）的诊疗人次，按就诊去重，每人次记 1
	VisitCounts(ctx context.Context, hospitalID, chargeType string, start, end time.Time) ([]domain.Observation, error)
}

type PostgresChargeRepo struct {
	db *sql.DB
}

func NewPostgresChargeRepo(db *sql.DB) *PostgresChargeRepo {
	return &PostgresChargeRepo{db: db}
}

func (r *PostgresChargeRepo) OutpatientCharges(ctx context.Context, source string, doctorIDs []string, start, end time.Time) ([]domain.Observation, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	q := `
		select detail.total_price, detail.operate_time
		from his_charge_detail detail
		where detail.operate_time >= $1
		  and detail.operate_time < $2
		  and (detail.item like $3 or detail.item = $4)
		  and detail.doctor = any($5)
		order by detail.operate_time
	`
	return r.queryObservations(ctx, q, start, end, source+".%", source, pq.Array(doctorIDs))
}

func (r *PostgresChargeRepo) InpatientCharges(ctx context.Context, source string, doctorIDs []string, start, end time.Time) ([]domain.Observation, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	// 住院工分按出院日期归属，不按收费时间
	q := `
		select detail.total_price, detail.operate_time
		from his_charge_detail detail
		       inner join his_charge_master master on detail.main = master.id
		       inner join his_inpatient inpatient on master.treat = inpatient.id
		where inpatient.out_date >= $1
		  and inpatient.out_date < $2
		  and (detail.item like $3 or detail.item = $4)
		  and detail.doctor = any($5)
		order by detail.operate_time
	`
	return r.queryObservations(ctx, q, start, end, source+".%", source, pq.Array(doctorIDs))
}

func (r *PostgresChargeRepo) VisitCounts(ctx context.Context, hospitalID, chargeType string, start, end time.Time) ([]domain.Observation, error) {
	q := `
		select distinct master.treat, master.operate_time
		from his_charge_master master
		where master.hospital = $1
		  and master.operate_time >= $2
		  and master.operate_time < $3
		  and master.charge_type = $4
		order by master.operate_time
	`
	rows, err := r.db.QueryContext(ctx, q, hospitalID, start, end, chargeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	one := decimal.NewFromInt(1)
	for rows.Next() {
		var treat string
		var date time.Time
		if err := rows.Scan(&treat, &date); err != nil {
			return nil, err
		}
		out = append(out, domain.Observation{Date: date, Value: one})
	}
	return out, rows.Err()
}

func (r *PostgresChargeRepo) queryObservations(ctx context.Context, q string, args ...any) ([]domain.Observation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
