package service

import (
	"context"
	"time"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MetricSnapshot 某机构某日的指标快照：人员构成 + HIS 指标。
// 质量考核引擎只消费快照，不关心指标怎么来的。
type MetricSnapshot struct {
	Counts     domain.StaffCounts
	Indicators HISIndicators
}

// MetricsProvider 指标提供方。
type MetricsProvider interface {
	Snapshot(ctx context.Context, hospitalID string, day time.Time) (*MetricSnapshot, error)
}

// MetricsService 由花名册和 HIS 网关拼出指标快照。
type MetricsService struct {
	staff  repository.StaffRepo
	his    *HISClient
	logger *zap.Logger
}

func NewMetricsService(staff repository.StaffRepo, his *HISClient, logger *zap.Logger) *MetricsService {
	return &MetricsService{staff: staff, his: his, logger: logger}
}

func (m *MetricsService) Snapshot(ctx context.Context, hospitalID string, day time.Time) (*MetricSnapshot, error) {
	roster, err := m.staff.ListHospitalStaff(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	indicators, err := m.his.Indicators(ctx, hospitalID, day.Year())
	if err != nil {
		return nil, err
	}
	return &MetricSnapshot{
		Counts:     domain.CountStaff(roster, domain.YearStart(day)),
		Indicators: *indicators,
	}, nil
}

var tenThousand = decimal.NewFromInt(10000)

// 指标函数表：编码 → 从快照算实际值。比值类指标分母为零时返回 (0, false)，
// 调用侧按无得分处理，绝不产生除零。
var metricFuncs = map[domain.MetricCode]func(s *MetricSnapshot) (decimal.Decimal, bool){
	domain.MetricHIS00: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return s.Indicators.HIS00, true
	},
	domain.MetricGPsPerW: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return perTenThousand(decimal.NewFromInt(int64(s.Counts.GP)), s.Indicators.ServedPopulation)
	},
	domain.MetricIncreasesOfGPsPerW: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return perTenThousand(decimal.NewFromInt(int64(s.Counts.IncreasedGP)), s.Indicators.ServedPopulation)
	},
	domain.MetricRatioOfMedicalAndNursing: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return ratio(s.Counts.Physician, s.Counts.Nurse)
	},
	domain.MetricRatioOfHealthTechnicianEducation: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return ratio(s.Counts.Bachelor, s.Counts.HealthWorkers)
	},
	domain.MetricRatioOfHealthTechnicianTitles: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return ratio(s.Counts.HighTitle, s.Counts.HealthWorkers)
	},
	domain.MetricRatioOfTCM: func(s *MetricSnapshot) (decimal.Decimal, bool) {
		return ratio(s.Counts.TCM, s.Counts.Physician)
	},
}

// Metric 按编码取实际值；未知编码或分母缺失返回 ok=false。
func (s *MetricSnapshot) Metric(code domain.MetricCode) (decimal.Decimal, bool) {
	fn, ok := metricFuncs[code]
	if !ok {
		return decimal.Zero, false
	}
	return fn(s)
}

func ratio(numerator, denominator int) (decimal.Decimal, bool) {
	if denominator == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(numerator)).Div(decimal.NewFromInt(int64(denominator))), true
}

func perTenThousand(count, population decimal.Decimal) (decimal.Decimal, bool) {
	if population.Sign() <= 0 {
		return decimal.Zero, false
	}
	return count.Div(population).Mul(tenThousand), true
}
