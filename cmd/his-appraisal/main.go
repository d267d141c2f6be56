package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"his-appraisal/internal/config"
	"his-appraisal/internal/database"
	httpapi "his-appraisal/internal/http"
	"his-appraisal/internal/jobs"
	"his-appraisal/internal/logger"
	"his-appraisal/internal/repository"
	"his-appraisal/internal/service"
	"his-appraisal/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "his-appraisal")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("connect database failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	kv := store.NewRedisKV(redisClient)

	staffRepo := repository.NewPostgresStaffRepo(db)
	itemRepo := repository.NewPostgresWorkItemRepo(db)
	chargeRepo := repository.NewPostgresChargeRepo(db)
	manualRepo := repository.NewPostgresManualRepo(db)
	phRepo := repository.NewPostgresPublicHealthRepo(db)
	ruleRepo := repository.NewPostgresRuleRepo(db)
	resultRepo := repository.NewPostgresResultRepo(db)
	settleRepo := service.NewCachedSettleRepo(repository.NewPostgresSettleRepo(db), kv, log)

	hisClient := service.NewHISClient(
		cfg.HISGateway.BaseURL,
		time.Duration(cfg.HISGateway.TimeoutSeconds)*time.Second,
		log,
	)
	metrics := service.NewMetricsService(staffRepo, hisClient, log)

	scopeResolver := service.NewScopeResolver(staffRepo, log)
	sourceResolver := service.NewSourceResolver(chargeRepo, manualRepo, phRepo, log)
	workPoints := service.NewWorkPointService(
		staffRepo, itemRepo, resultRepo, settleRepo,
		scopeResolver, sourceResolver, log, cfg.Batch.Fanout,
	)
	rules := service.NewRuleService(ruleRepo, resultRepo, settleRepo, staffRepo, metrics, log)

	queue := jobs.NewQueue(redisClient, log)
	batch := service.NewBatchService(workPoints, rules, settleRepo, queue, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go queue.Run(ctx, batch)

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.Start(ctx, cfg.Batch.Cron, batch); err != nil {
		log.Fatal("start scheduler failed", zap.Error(err))
	}
	defer scheduler.Stop()

	router := httpapi.NewRouter(log)
	router.RegisterScoreRoutes(httpapi.NewScoreHandler(batch, rules, staffRepo, log))
	router.RegisterSettleRoutes(httpapi.NewSettleHandler(settleRepo, resultRepo, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	if err := srv.Stop(); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
}
