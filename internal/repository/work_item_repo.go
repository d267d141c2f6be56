package repository

import (
	"context"
	"database/sql"

	"his-appraisal/internal/domain"

	"github.com/shopspring/decimal"
)

// WorkItemRepo 工分项配置与员工考核任务。
type WorkItemRepo interface {
	// ListAssignments 员工被考核的全部工分项（含来源绑定和取值范围）
	ListAssignments(ctx context.Context, staffID string) ([]domain.Assignment, error)
}

type PostgresWorkItemRepo struct {
	db *sql.DB
}

func NewPostgresWorkItemRepo(db *sql.DB) *PostgresWorkItemRepo {
	return &PostgresWorkItemRepo{db: db}
}

// 一次联查取出员工的工分项绑定关系，按工分项 id 在内存中分组。
// work_item_scope 只有固定绑定才有行；动态绑定的层级存在 work_item.scope_level。
func (r *PostgresWorkItemRepo) ListAssignments(ctx context.Context, staffID string) ([]domain.Assignment, error) {
	q := `
		select wi.id,
		       wi.hospital,
		       wi.name,
		       wi.method,
		       wi.score,
		       swi.rate,
		       wi.staff_mode,
		       coalesce(wi.scope_level, ''),
		       wis.source,
		       coalesce(scope.code, ''),
		       coalesce(scope.level, '员工')
		from staff_work_item swi
		       inner join work_item wi on swi.item = wi.id
		       inner join work_item_source wis on swi.item = wis.item
		       left join work_item_scope scope on swi.item = scope.item
		where swi.staff = $1
	`
	rows, err := r.db.QueryContext(ctx, q, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assignment
	index := map[string]int{}
	for rows.Next() {
		var (
			itemID, hospital, name, method   string
			unitScore, rate                  decimal.Decimal
			staffMode, scopeLevel            string
			source, targetCode, targetLevel  string
		)
		if err := rows.Scan(
			&itemID, &hospital, &name, &method, &unitScore, &rate,
			&staffMode, &scopeLevel, &source, &targetCode, &targetLevel,
		); err != nil {
			return nil, err
		}

		i, ok := index[itemID]
		if !ok {
			a := domain.Assignment{
				StaffID: staffID,
				Item: domain.WorkItem{
					ID:         itemID,
					HospitalID: hospital,
					Name:       name,
					Method:     domain.ScoringMethod(method),
					UnitScore:  unitScore,
				},
				Rate: rate,
				Scope: domain.StaffScope{
					Mode:  domain.ScopeMode(staffMode),
					Level: domain.ScopeLevel(scopeLevel),
				},
			}
			out = append(out, a)
			i = len(out) - 1
			index[itemID] = i
		}
		a := &out[i]

		if !hasSource(a.Sources, source) {
			a.Sources = append(a.Sources, domain.SourceBinding{
				ItemID: itemID,
				Source: source,
				Kind:   domain.KindOfSource(source),
			})
		}
		if a.Scope.Mode == domain.ScopeStatic && targetCode != "" && !hasTarget(a.Scope.Targets, targetCode) {
			a.Scope.Targets = append(a.Scope.Targets, domain.ScopeTarget{
				Code:  targetCode,
				Level: domain.ScopeLevel(targetLevel),
			})
		}
	}
	return out, rows.Err()
}

func hasSource(list []domain.SourceBinding, source string) bool {
	for _, s := range list {
		if s.Source == source {
			return true
		}
	}
	return false
}

func hasTarget(list []domain.ScopeTarget, code string) bool {
	for _, t := range list {
		if t.Code == code {
			return true
		}
	}
	return false
}
