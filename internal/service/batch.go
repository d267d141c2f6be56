package service

import (
	"context"
	"time"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"go.uber.org/zap"
)

// MonthJob 月度重算任务载荷。
type MonthJob struct {
	HospitalID string    `json:"hospitalId"`
	Month      time.Time `json:"month"`
}

// JobSubmitter 后台任务提交。月度重算只提交不内联执行。
type JobSubmitter interface {
	Submit(ctx context.Context, job MonthJob) error
}

// BatchService 批量打分驱动：手动触发的月度重算和夜间定时打分。
type BatchService struct {
	work   *WorkPointService
	rules  *RuleService
	settle repository.SettleRepo
	queue  JobSubmitter
	logger *zap.Logger
}

func NewBatchService(
	work *WorkPointService,
	rules *RuleService,
	settle repository.SettleRepo,
	queue JobSubmitter,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{work: work, rules: rules, settle: settle, queue: queue, logger: logger}
}

// ScoreMonth 重算整月：结算校验后提交后台任务，立即返回。
func (s *BatchService) ScoreMonth(ctx context.Context, hospitalID string, month time.Time) error {
	monthStart, _ := domain.MonthRange(month)
	settled, err := s.settle.IsSettled(ctx, hospitalID, monthStart)
	if err != nil {
		return err
	}
	if settled {
		return domain.Conflictf("该月已结算, 不能打分")
	}
	return s.queue.Submit(ctx, MonthJob{HospitalID: hospitalID, Month: monthStart})
}

// RunMonthJob 后台执行月度重算：按日推进，工分 + 考核分。
// 每个机构日失败只记日志，任务继续。
func (s *BatchService) RunMonthJob(ctx context.Context, job MonthJob) {
	days := domain.DaysOfMonth(job.Month, time.Now())
	s.logger.Info("month recompute start",
		zap.String("hospital", job.HospitalID),
		zap.Time("month", job.Month),
		zap.Int("days", len(days)),
	)
	for _, day := range days {
		s.scoreHospitalDay(ctx, job.HospitalID, day)
	}
	s.logger.Info("month recompute done", zap.String("hospital", job.HospitalID), zap.Time("month", job.Month))
}

// AutoScoreDaily 夜间定时入口：计算前一天，覆盖所有未结算机构。
func (s *BatchService) AutoScoreDaily(ctx context.Context) {
	day, _ := domain.DayRange(time.Now().AddDate(0, 0, -1))
	month, _ := domain.MonthRange(day)

	hospitals, err := s.settle.ListUnsettledHospitals(ctx, month)
	if err != nil {
		s.logger.Error("list unsettled hospitals failed", zap.Error(err))
		return
	}
	s.logger.Info("nightly auto score start", zap.Time("day", day), zap.Int("hospitals", len(hospitals)))
	for _, hospitalID := range hospitals {
		s.scoreHospitalDay(ctx, hospitalID, day)
	}
	s.logger.Info("nightly auto score done", zap.Time("day", day))
}

func (s *BatchService) scoreHospitalDay(ctx context.Context, hospitalID string, day time.Time) {
	if err := s.work.WorkScoreHospital(ctx, hospitalID, day); err != nil {
		s.logger.Error("work score hospital failed",
			zap.String("hospital", hospitalID),
			zap.Time("day", day),
			zap.Error(err),
		)
	}
	if err := s.rules.AutoScoreHospital(ctx, hospitalID, day); err != nil {
		s.logger.Error("auto score hospital failed",
			zap.String("hospital", hospitalID),
			zap.Time("day", day),
			zap.Error(err),
		)
	}
}
