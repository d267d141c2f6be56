package service

import (
	"context"
	"strings"
	"time"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"go.uber.org/zap"
)

// SourceResolver 按来源种类拉取工分流水。
// 配置缺口（无数据表配置/无外部身份映射）一律解析为空流水，不让单个
// 来源的配置问题拖垮整次计算。
type SourceResolver struct {
	charges repository.ChargeRepo
	manual  repository.ManualRepo
	ph      repository.PublicHealthRepo
	logger  *zap.Logger
}

func NewSourceResolver(charges repository.ChargeRepo, manual repository.ManualRepo, ph repository.PublicHealthRepo, logger *zap.Logger) *SourceResolver {
	return &SourceResolver{charges: charges, manual: manual, ph: ph, logger: logger}
}

// Fetch 拉取一条来源绑定在时间窗内的观测流水。
func (s *SourceResolver) Fetch(ctx context.Context, b domain.SourceBinding, scope *ResolvedScope, acting *domain.Staff, start, end time.Time) ([]domain.Observation, error) {
	switch b.Kind {
	case domain.SourceOutpatient:
		if len(scope.DoctorIDs) == 0 {
			return nil, nil
		}
		return s.charges.OutpatientCharges(ctx, b.Source, scope.DoctorIDs, start, end)

	case domain.SourceInpatient:
		if len(scope.DoctorIDs) == 0 {
			return nil, nil
		}
		return s.charges.InpatientCharges(ctx, b.Source, scope.DoctorIDs, start, end)

	case domain.SourceManual:
		itemID := domain.ManualItemID(b.Source)
		if itemID == "" {
			s.logger.Debug("manual source without item id, skipped", zap.String("source", b.Source))
			return nil, nil
		}
		return s.manual.Entries(ctx, itemID, scope.StaffIDs, start, end)

	case domain.SourcePublicHealth:
		return s.fetchPublicHealth(ctx, b, scope, acting, start, end)

	case domain.SourceOther:
		chargeType := strings.TrimSuffix(strings.TrimPrefix(b.Source, "其他."), "诊疗人次")
		if chargeType != string(domain.SourceOutpatient) && chargeType != string(domain.SourceInpatient) {
			s.logger.Debug("unknown visit counter source, skipped", zap.String("source", b.Source))
			return nil, nil
		}
		return s.charges.VisitCounts(ctx, acting.HospitalID, chargeType, start, end)

	default:
		s.logger.Debug("unknown source kind, skipped", zap.String("source", b.Source))
		return nil, nil
	}
}

func (s *SourceResolver) fetchPublicHealth(ctx context.Context, b domain.SourceBinding, scope *ResolvedScope, acting *domain.Staff, start, end time.Time) ([]domain.Observation, error) {
	entry := domain.LookupSource(b.Source)
	if entry == nil || entry.Datasource == nil {
		s.logger.Debug("public health source has no datasource, skipped", zap.String("source", b.Source))
		return nil, nil
	}

	// 员工粒度的公卫来源依赖公卫操作员身份；没有映射就没有流水
	var operatorIDs []string
	if entry.Scope == domain.LevelStaff {
		if len(scope.PHStaffIDs) == 0 {
			return nil, nil
		}
		operatorIDs = scope.PHStaffIDs
	}
	return s.ph.Records(ctx, entry.Datasource, acting.HospitalID, operatorIDs, start, end)
}
