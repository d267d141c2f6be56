package repository

import (
	"context"
	"database/sql"
	"time"

	"his-appraisal/internal/domain"

	"github.com/lib/pq"
)

// StaffRepo 员工花名册与外部身份映射。
// 查询单个员工不存在时返回 (nil, nil)：批量打分对缺失员工静默跳过。
type StaffRepo interface {
	GetStaff(ctx context.Context, id string) (*domain.Staff, error)
	ListHospitalStaff(ctx context.Context, hospitalID string) ([]domain.Staff, error)
	// ListStaffIDsByDepartments 科室下的全部员工 id
	ListStaffIDsByDepartments(ctx context.Context, deptIDs []string) ([]string, error)
	// DepartmentCohort 员工所在科室的同事（含本人）；无科室时退化为本人
	DepartmentCohort(ctx context.Context, staff *domain.Staff) ([]string, error)
	// DoctorIDs 员工 id → 已关联的 HIS 医生 id（未关联的丢弃）
	DoctorIDs(ctx context.Context, staffIDs []string) ([]string, error)
	// AllHospitalDoctorIDs 机构下全部 HIS 医生 id（含未关联系统员工的）
	AllHospitalDoctorIDs(ctx context.Context, hospitalID string) ([]string, error)
	// PHStaffIDs 员工 id → 已关联的公卫操作员 id
	PHStaffIDs(ctx context.Context, staffIDs []string) ([]string, error)
	// AllHospitalPHStaffIDs 机构下全部公卫操作员 id
	AllHospitalPHStaffIDs(ctx context.Context, hospitalID string) ([]string, error)
}

type PostgresStaffRepo struct {
	db *sql.DB
}

func NewPostgresStaffRepo(db *sql.DB) *PostgresStaffRepo {
	return &PostgresStaffRepo{db: db}
}

const staffColumns = `
	id,
	hospital,
	name,
	coalesce(department, ''),
	coalesce(doctor_id, ''),
	coalesce(ph_staff_id, ''),
	coalesce(major, ''),
	coalesce(title, ''),
	coalesce(education, ''),
	coalesce(is_gp, false),
	created_at`

func scanStaff(row interface{ Scan(...any) error }) (*domain.Staff, error) {
	var s domain.Staff
	var createdAt sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.HospitalID,
		&s.Name,
		&s.Department,
		&s.DoctorID,
		&s.PHStaffID,
		&s.Major,
		&s.Title,
		&s.Education,
		&s.IsGP,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	} else {
		s.CreatedAt = time.Time{}
	}
	return &s, nil
}

func (r *PostgresStaffRepo) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	q := `select ` + staffColumns + ` from staff where id = $1`
	s, err := scanStaff(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresStaffRepo) ListHospitalStaff(ctx context.Context, hospitalID string) ([]domain.Staff, error) {
	q := `select ` + staffColumns + ` from staff where hospital = $1 order by created_at`
	rows, err := r.db.QueryContext(ctx, q, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PostgresStaffRepo) ListStaffIDsByDepartments(ctx context.Context, deptIDs []string) ([]string, error) {
	if len(deptIDs) == 0 {
		return nil, nil
	}
	q := `select id from staff where department = any($1)`
	return r.queryIDs(ctx, q, pq.Array(deptIDs))
}

func (r *PostgresStaffRepo) DepartmentCohort(ctx context.Context, staff *domain.Staff) ([]string, error) {
	if staff.Department == "" {
		return []string{staff.ID}, nil
	}
	q := `select id from staff where department = $1 or id = $2`
	return r.queryIDs(ctx, q, staff.Department, staff.ID)
}

func (r *PostgresStaffRepo) DoctorIDs(ctx context.Context, staffIDs []string) ([]string, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	q := `select doctor_id from staff where doctor_id is not null and doctor_id <> '' and id = any($1)`
	return r.queryIDs(ctx, q, pq.Array(staffIDs))
}

func (r *PostgresStaffRepo) AllHospitalDoctorIDs(ctx context.Context, hospitalID string) ([]string, error) {
	q := `select id from his_staff where hospital = $1`
	return r.queryIDs(ctx, q, hospitalID)
}

func (r *PostgresStaffRepo) PHStaffIDs(ctx context.Context, staffIDs []string) ([]string, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	q := `select ph_staff_id from staff where ph_staff_id is not null and ph_staff_id <> '' and id = any($1)`
	return r.queryIDs(ctx, q, pq.Array(staffIDs))
}

func (r *PostgresStaffRepo) AllHospitalPHStaffIDs(ctx context.Context, hospitalID string) ([]string, error) {
	q := `select id from ph_user where hospital = $1`
	return r.queryIDs(ctx, q, hospitalID)
}

func (r *PostgresStaffRepo) queryIDs(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
