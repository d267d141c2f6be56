package domain

import "github.com/shopspring/decimal"

// RuleOperator 细则计算方式。沿用指标算法编码：
// Y01 结果为"是"得满分; N01 结果为"否"得满分; egt "≥"得满分, 不足按比例。
type RuleOperator string

const (
	OperatorYes RuleOperator = "Y01"
	OperatorNo  RuleOperator = "N01"
	OperatorEgt RuleOperator = "egt"
)

// MetricCode 质量考核指标编码。
type MetricCode string

const (
	// MetricHIS00 是否接入 HIS
	MetricHIS00 MetricCode = "HIS00"
	// MetricGPsPerW 万人口全科医生数
	MetricGPsPerW MetricCode = "GPsPerW"
	// MetricIncreasesOfGPsPerW 万人口全科医生年增长数
	MetricIncreasesOfGPsPerW MetricCode = "IncreasesOfGPsPerW"
	// MetricRatioOfMedicalAndNursing 医护比
	MetricRatioOfMedicalAndNursing MetricCode = "RatioOfMedicalAndNursing"
	// MetricRatioOfHealthTechnicianEducation 卫生技术人员学历结构
	MetricRatioOfHealthTechnicianEducation MetricCode = "RatioOfHealthTechnicianEducation"
	// MetricRatioOfHealthTechnicianTitles 卫生技术人员职称结构
	MetricRatioOfHealthTechnicianTitles MetricCode = "RatioOfHealthTechnicianTitles"
	// MetricRatioOfTCM 中医类别医师占比
	MetricRatioOfTCM MetricCode = "RatioOfTCM"
)

// CheckSystem 考核方案。
type CheckSystem struct {
	ID         string
	HospitalID string
	Name       string
}

// CheckRule 考核细则。打分过程中视为只读，管理端修改不在本引擎范围内。
type CheckRule struct {
	ID       string
	CheckID  string
	Name     string
	Auto     bool
	Detail   string
	Metric   MetricCode
	Operator RuleOperator
	// Value 参考值（egt 的分母基准）
	Value decimal.Decimal
	// Score 细则满分
	Score decimal.Decimal
}
