package service

import (
	"context"
	"fmt"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"go.uber.org/zap"
)

// ResolvedScope 取值范围展开结果。DoctorIDs/PHStaffIDs 只在来源需要外部身份时填充。
type ResolvedScope struct {
	StaffIDs   []string
	DoctorIDs  []string
	PHStaffIDs []string
}

// ScopeResolver 把工分项的员工绑定展开为具体员工集合。
type ScopeResolver struct {
	staff  repository.StaffRepo
	logger *zap.Logger
}

func NewScopeResolver(staff repository.StaffRepo, logger *zap.Logger) *ScopeResolver {
	return &ScopeResolver{staff: staff, logger: logger}
}

// 动态范围的展开函数表，按层级查找，避免在各处重复分支。
var dynamicResolvers = map[domain.ScopeLevel]func(ctx context.Context, repo repository.StaffRepo, acting *domain.Staff) ([]string, error){
	domain.LevelStaff: func(ctx context.Context, repo repository.StaffRepo, acting *domain.Staff) ([]string, error) {
		return []string{acting.ID}, nil
	},
	domain.LevelDepartment: func(ctx context.Context, repo repository.StaffRepo, acting *domain.Staff) ([]string, error) {
		return repo.DepartmentCohort(ctx, acting)
	},
	domain.LevelHospital: func(ctx context.Context, repo repository.StaffRepo, acting *domain.Staff) ([]string, error) {
		roster, err := repo.ListHospitalStaff(ctx, acting.HospitalID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(roster))
		for _, s := range roster {
			ids = append(ids, s.ID)
		}
		return ids, nil
	},
}

// Resolve 展开员工范围。needDoctor/needPH 标记来源是否需要 HIS 医生 / 公卫操作员身份。
// 动态+机构时外部身份取机构全量（包含未关联系统员工的外部账号），
// 其余场景按已关联映射取，未关联的员工丢弃。
func (r *ScopeResolver) Resolve(ctx context.Context, scope domain.StaffScope, acting *domain.Staff, needDoctor, needPH bool) (*ResolvedScope, error) {
	var staffIDs []string
	var err error

	switch scope.Mode {
	case domain.ScopeStatic:
		staffIDs, err = r.resolveStatic(ctx, scope.Targets)
	case domain.ScopeDynamic:
		fn, ok := dynamicResolvers[scope.Level]
		if !ok {
			return nil, fmt.Errorf("unknown scope level %q", scope.Level)
		}
		staffIDs, err = fn(ctx, r.staff, acting)
	default:
		return nil, fmt.Errorf("unknown scope mode %q", scope.Mode)
	}
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedScope{StaffIDs: staffIDs}
	hospitalWide := scope.Mode == domain.ScopeDynamic && scope.Level == domain.LevelHospital

	if needDoctor {
		if hospitalWide {
			resolved.DoctorIDs, err = r.staff.AllHospitalDoctorIDs(ctx, acting.HospitalID)
		} else {
			resolved.DoctorIDs, err = r.staff.DoctorIDs(ctx, staffIDs)
		}
		if err != nil {
			return nil, err
		}
	}
	if needPH {
		if hospitalWide {
			resolved.PHStaffIDs, err = r.staff.AllHospitalPHStaffIDs(ctx, acting.HospitalID)
		} else {
			resolved.PHStaffIDs, err = r.staff.PHStaffIDs(ctx, staffIDs)
		}
		if err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// resolveStatic 固定绑定：员工目标直接取，科室目标查科室成员，
// 机构目标按字面当机构 id 查全员（历史数据把机构 id 存在目标字段里）。
func (r *ScopeResolver) resolveStatic(ctx context.Context, targets []domain.ScopeTarget) ([]string, error) {
	var staffIDs []string
	var deptIDs []string

	for _, t := range targets {
		switch t.Level {
		case domain.LevelStaff:
			staffIDs = append(staffIDs, t.Code)
		case domain.LevelDepartment:
			deptIDs = append(deptIDs, t.Code)
		case domain.LevelHospital:
			roster, err := r.staff.ListHospitalStaff(ctx, t.Code)
			if err != nil {
				return nil, err
			}
			for _, s := range roster {
				staffIDs = append(staffIDs, s.ID)
			}
		}
	}

	if len(deptIDs) > 0 {
		ids, err := r.staff.ListStaffIDsByDepartments(ctx, deptIDs)
		if err != nil {
			return nil, err
		}
		staffIDs = append(staffIDs, ids...)
	}
	return staffIDs, nil
}
