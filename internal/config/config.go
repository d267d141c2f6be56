package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config his-appraisal 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Addr     string
		Password string
		DB       int
	}
	// HISGateway 区域 HIS 数据平台（机构指标来源）
	HISGateway struct {
		BaseURL        string
		TimeoutSeconds int
	}
	Batch struct {
		// Fanout 每机构并发打分的员工数上限
		Fanout int
		// Cron 夜间自动打分计划（5 段 cron 表达式）
		Cron string
	}
	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "appraisal")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.HISGateway.BaseURL = getEnv("HIS_GATEWAY_URL", "http://localhost:9090")
	cfg.HISGateway.TimeoutSeconds = parseInt(getEnv("HIS_GATEWAY_TIMEOUT", "30"), 30)

	// 并发上限 8-32 之间，默认 16
	cfg.Batch.Fanout = clamp(parseInt(getEnv("BATCH_FANOUT", "16"), 16), 8, 32)
	// 每天凌晨 2 点计算前一天
	cfg.Batch.Cron = getEnv("BATCH_CRON", "0 2 * * *")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
