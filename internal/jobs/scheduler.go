package jobs

import (
	"context"
	"fmt"

	"his-appraisal/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 夜间自动打分的定时器。
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Start 按标准 5 段 cron 表达式（分 时 日 月 周）调度前一天的自动打分。
func (s *Scheduler) Start(ctx context.Context, schedule string, batch *service.BatchService) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	s.cron = cron.New(cron.WithParser(parser))
	_, err := s.cron.AddFunc(schedule, func() {
		batch.AutoScoreDaily(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("nightly auto score scheduled", zap.String("cron", schedule))
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
