package service

import (
	"context"
	"sync"
	"time"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WorkPointService 工分计算：来源流水 → 按得分方式折算 → 按权重累加 →
// 整体替换当日结果。
type WorkPointService struct {
	staff   repository.StaffRepo
	items   repository.WorkItemRepo
	results repository.ResultRepo
	settle  repository.SettleRepo
	scope   *ScopeResolver
	sources *SourceResolver
	logger  *zap.Logger
	fanout  int
}

func NewWorkPointService(
	staff repository.StaffRepo,
	items repository.WorkItemRepo,
	results repository.ResultRepo,
	settle repository.SettleRepo,
	scope *ScopeResolver,
	sources *SourceResolver,
	logger *zap.Logger,
	fanout int,
) *WorkPointService {
	if fanout <= 0 {
		fanout = 16
	}
	return &WorkPointService{
		staff:   staff,
		items:   items,
		results: results,
		settle:  settle,
		scope:   scope,
		sources: sources,
		logger:  logger,
		fanout:  fanout,
	}
}

// WorkScoreHospital 机构全员工分计算，按员工有界并发展开。
// 单个员工失败只记日志，批次继续（批内失败隔离）。
func (s *WorkPointService) WorkScoreHospital(ctx context.Context, hospitalID string, day time.Time) error {
	month, _ := domain.MonthRange(day)
	settled, err := s.settle.IsSettled(ctx, hospitalID, month)
	if err != nil {
		return err
	}
	if settled {
		return domain.Conflictf("机构 %s %s 已结算, 不能打分", hospitalID, month.Format("2006-01"))
	}

	roster, err := s.staff.ListHospitalStaff(ctx, hospitalID)
	if err != nil {
		return err
	}

	s.logger.Info("work score hospital start",
		zap.String("hospital", hospitalID),
		zap.Time("day", day),
		zap.Int("staff_count", len(roster)),
	)

	sem := make(chan struct{}, s.fanout)
	var wg sync.WaitGroup
	for _, st := range roster {
		wg.Add(1)
		sem <- struct{}{}
		go func(staffID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.ScoreStaff(ctx, staffID, day); err != nil {
				s.logger.Error("score staff failed, unit skipped",
					zap.String("staff", staffID),
					zap.Time("day", day),
					zap.Error(err),
				)
			}
		}(st.ID)
	}
	wg.Wait()

	s.logger.Info("work score hospital done", zap.String("hospital", hospitalID), zap.Time("day", day))
	return nil
}

// ScoreStaff 员工单日工分打分。同一输入重复执行产生相同结果行（幂等）。
func (s *WorkPointService) ScoreStaff(ctx context.Context, staffID string, day time.Time) error {
	staff, err := s.staff.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if staff == nil {
		return nil
	}

	assignments, err := s.items.ListAssignments(ctx, staffID)
	if err != nil {
		return err
	}

	start, end := domain.DayRange(day)

	// 同一工分项的多条任务按 id 加和合并；没有流水的配置项也要有 0 分行
	items := make([]domain.WorkResultItem, 0, len(assignments))
	index := map[string]int{}
	for _, a := range assignments {
		score, err := s.computeAssignment(ctx, staff, a, start, end)
		if err != nil {
			return err
		}
		if i, ok := index[a.Item.ID]; ok {
			items[i].Score = items[i].Score.Add(score)
			continue
		}
		items = append(items, domain.WorkResultItem{
			ID:    a.Item.ID,
			Name:  a.Item.Name,
			Score: score,
		})
		index[a.Item.ID] = len(items) - 1
	}

	return s.results.ReplaceWorkResult(ctx, &domain.WorkResult{
		StaffID: staffID,
		Day:     start,
		Items:   items,
	})
}

// computeAssignment 单条考核任务的工分：
// 计数: 每条流水得单位分值; 总和: 金额 × 单位分值。结果乘以任务权重。
func (s *WorkPointService) computeAssignment(ctx context.Context, staff *domain.Staff, a domain.Assignment, start, end time.Time) (decimal.Decimal, error) {
	needDoctor, needPH := false, false
	for _, b := range a.Sources {
		switch b.Kind {
		case domain.SourceOutpatient, domain.SourceInpatient:
			needDoctor = true
		case domain.SourcePublicHealth:
			needPH = true
		}
	}

	scope, err := s.scope.Resolve(ctx, a.Scope, staff, needDoctor, needPH)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, b := range a.Sources {
		observations, err := s.sources.Fetch(ctx, b, scope, staff, start, end)
		if err != nil {
			return decimal.Zero, err
		}
		for _, o := range observations {
			switch a.Item.Method {
			case domain.MethodCount:
				sum = sum.Add(a.Item.UnitScore)
			case domain.MethodSum:
				sum = sum.Add(o.Value.Mul(a.Item.UnitScore))
			}
		}
	}
	return sum.Mul(a.Rate), nil
}
