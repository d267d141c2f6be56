package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 结果文档结构版本号。读侧遇到旧版本按需迁移，写侧总是写当前版本。
const (
	WorkResultVersion   = 1
	AssessResultVersion = 1
)

// WorkResultItem 单个工分项的得分行。未命中任何流水的配置项也要有 0 分行，
// 下游按"配置了就有行"消费。
type WorkResultItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Score decimal.Decimal `json:"score"`
}

// WorkResult 员工某日的工分结果，按 (staff, day) 整体替换。
type WorkResult struct {
	StaffID string           `json:"-"`
	Day     time.Time        `json:"-"`
	Version int              `json:"version"`
	Items   []WorkResultItem `json:"items"`
}

// TotalScore 当日工分合计。
func (r *WorkResult) TotalScore() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.Items {
		sum = sum.Add(it.Score)
	}
	return sum
}

// RuleScore 单条细则的打分。Score 为 nil 表示尚未打分（手动细则待打）。
type RuleScore struct {
	RuleID   string           `json:"ruleId"`
	Name     string           `json:"name"`
	Auto     bool             `json:"auto"`
	Metric   MetricCode       `json:"metric"`
	Operator RuleOperator     `json:"operator"`
	Value    decimal.Decimal  `json:"value"`
	Score    *decimal.Decimal `json:"score"`
	Total    decimal.Decimal  `json:"total"`
}

// AssessResult 员工某日的质量考核结果。
type AssessResult struct {
	StaffID    string          `json:"-"`
	Day        time.Time       `json:"-"`
	Version    int             `json:"version"`
	SystemID   string          `json:"systemId"`
	SystemName string          `json:"systemName"`
	Rate       decimal.Decimal `json:"rate"`
	Scores     []RuleScore     `json:"scores"`
}

// ComputeRate 质量系数 = Σ得分 / Σ满分，分母不为正时为 0。
// 未打分的细则按 0 分计入分子。
func (a *AssessResult) ComputeRate() decimal.Decimal {
	sum := decimal.Zero
	total := decimal.Zero
	for _, s := range a.Scores {
		if s.Score != nil {
			sum = sum.Add(*s.Score)
		}
		total = total.Add(s.Total)
	}
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	return sum.Div(total)
}

// FindScore 按细则 id 查找打分行，找不到返回 nil。
func (a *AssessResult) FindScore(ruleID string) *RuleScore {
	for i := range a.Scores {
		if a.Scores[i].RuleID == ruleID {
			return &a.Scores[i]
		}
	}
	return nil
}

// ItemTotal 月度视图里单个工分项的合计。
type ItemTotal struct {
	ItemID string
	Name   string
	Score  decimal.Decimal
}
