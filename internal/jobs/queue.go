package jobs

import (
	"context"
	"encoding/json"
	"time"

	"his-appraisal/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const monthJobKey = "appraisal:jobs:month"

// Queue Redis list 实现的后台任务队列。月度重算从 API 提交，
// worker 协程消费执行。
type Queue struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewQueue(rdb *redis.Client, logger *zap.Logger) *Queue {
	return &Queue{rdb: rdb, logger: logger}
}

func (q *Queue) Submit(ctx context.Context, job service.MonthJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, monthJobKey, payload).Err(); err != nil {
		return err
	}
	q.logger.Info("month job submitted",
		zap.String("hospital", job.HospitalID),
		zap.Time("month", job.Month),
	)
	return nil
}

// Run 阻塞消费任务直到 ctx 取消。单个任务失败只记日志。
func (q *Queue) Run(ctx context.Context, batch *service.BatchService) {
	q.logger.Info("month job worker started")
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("month job worker stopped")
			return
		default:
		}

		vals, err := q.rdb.BRPop(ctx, 5*time.Second, monthJobKey).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			q.logger.Error("job queue pop failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		// BRPop 返回 [key, value]
		if len(vals) < 2 {
			continue
		}

		var job service.MonthJob
		if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
			q.logger.Error("malformed month job dropped", zap.String("payload", vals[1]), zap.Error(err))
			continue
		}
		batch.RunMonthJob(ctx, job)
	}
}
