package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HISIndicators 区域 HIS 数据平台提供的机构级指标。
type HISIndicators struct {
	// HIS00 是否接入 HIS（0/1）
	HIS00 decimal.Decimal `json:"his00"`
	// OutpatientVisits 门急诊人次数
	OutpatientVisits decimal.Decimal `json:"outpatientVisits"`
	// OutpatientIncomes 门急诊收入
	OutpatientIncomes decimal.Decimal `json:"outpatientIncomes"`
	// DischargedVisits 出院人次数
	DischargedVisits decimal.Decimal `json:"dischargedVisits"`
	// InpatientVisits 住院人次数
	InpatientVisits decimal.Decimal `json:"inpatientVisits"`
	// InpatientIncomes 住院收入
	InpatientIncomes decimal.Decimal `json:"inpatientIncomes"`
	// ServedPopulation 服务人口数（万人口类指标的分母）
	ServedPopulation decimal.Decimal `json:"servedPopulation"`
}

// HISClient 区域 HIS 数据平台客户端。
type HISClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewHISClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HISClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &HISClient{httpClient: client, logger: logger}
}

// Indicators 拉取机构某年度的指标值。平台没有该机构的映射时（404）
// 返回零值指标：配置缺口不是错误，按零贡献处理。
func (c *HISClient) Indicators(ctx context.Context, hospitalID string, year int) (*HISIndicators, error) {
	var out HISIndicators
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("hospital", hospitalID).
		SetQueryParam("year", fmt.Sprintf("%d", year)).
		Get("/api/v1/hospitals/{hospital}/indicators")
	if err != nil {
		return nil, fmt.Errorf("failed to call HIS gateway: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		c.logger.Info("hospital not mapped on HIS gateway, zero indicators",
			zap.String("hospital", hospitalID),
			zap.Int("year", year),
		)
		return &HISIndicators{}, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HIS gateway returned %d", resp.StatusCode())
	}
	return &out, nil
}
