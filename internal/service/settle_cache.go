package service

import (
	"context"
	"fmt"
	"time"

	"his-appraisal/internal/repository"
	"his-appraisal/internal/store"

	"go.uber.org/zap"
)

// CachedSettleRepo 结算状态的短时缓存。批量打分每个员工单元都要查一次
// 结算状态，缓存把这类点查从数据库上摘下来。结算动作主动失效缓存；
// TTL 很短，检查和写入之间的小窗口竞态按人工操作节奏可接受。
type CachedSettleRepo struct {
	repository.SettleRepo
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSettleRepo(inner repository.SettleRepo, kv store.KV, logger *zap.Logger) *CachedSettleRepo {
	return &CachedSettleRepo{
		SettleRepo: inner,
		kv:         kv,
		ttl:        time.Minute,
		logger:     logger,
	}
}

func settleKey(hospitalID string, month time.Time) string {
	return fmt.Sprintf("appraisal:settle:%s:%s", hospitalID, month.Format("2006-01"))
}

func (r *CachedSettleRepo) IsSettled(ctx context.Context, hospitalID string, month time.Time) (bool, error) {
	key := settleKey(hospitalID, month)
	if v, err := r.kv.Get(ctx, key); err == nil {
		return v == "1", nil
	} else if err != store.ErrMiss {
		r.logger.Warn("settle cache read failed", zap.Error(err))
	}

	settled, err := r.SettleRepo.IsSettled(ctx, hospitalID, month)
	if err != nil {
		return false, err
	}
	v := "0"
	if settled {
		v = "1"
	}
	if err := r.kv.Set(ctx, key, v, r.ttl); err != nil {
		r.logger.Warn("settle cache write failed", zap.Error(err))
	}
	return settled, nil
}

func (r *CachedSettleRepo) Settle(ctx context.Context, hospitalID string, month time.Time) error {
	if err := r.SettleRepo.Settle(ctx, hospitalID, month); err != nil {
		return err
	}
	if err := r.kv.Del(ctx, settleKey(hospitalID, month)); err != nil {
		r.logger.Warn("settle cache invalidation failed", zap.Error(err))
	}
	return nil
}
