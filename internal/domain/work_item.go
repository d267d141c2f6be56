package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ScoringMethod 工分项得分方式。
type ScoringMethod string

const (
	// MethodCount 计数：每条流水得固定单位分值，与金额无关。
	MethodCount ScoringMethod = "计数"
	// MethodSum 总和：金额 × 单位分值。
	MethodSum ScoringMethod = "总和"
)

// SourceKind 工分来源种类，由来源 id 的前缀决定。
type SourceKind string

const (
	SourceOutpatient   SourceKind = "门诊"
	SourceInpatient    SourceKind = "住院"
	SourceManual       SourceKind = "手工数据"
	SourcePublicHealth SourceKind = "公卫数据"
	SourceOther        SourceKind = "其他"
)

// KindOfSource 按 id 前缀识别来源种类，未知前缀返回空。
func KindOfSource(source string) SourceKind {
	for _, k := range []SourceKind{SourceOutpatient, SourceInpatient, SourceManual, SourcePublicHealth, SourceOther} {
		if strings.HasPrefix(source, string(k)) {
			return k
		}
	}
	return ""
}

// ScopeMode 工分项和员工的绑定方式。
type ScopeMode string

const (
	ScopeStatic  ScopeMode = "固定"
	ScopeDynamic ScopeMode = "动态"
)

// ScopeLevel 取值范围层级。
type ScopeLevel string

const (
	LevelStaff      ScopeLevel = "员工"
	LevelDepartment ScopeLevel = "科室"
	LevelHospital   ScopeLevel = "机构"
)

// WorkItem 工分项配置。
type WorkItem struct {
	ID         string
	HospitalID string
	Name       string
	Method     ScoringMethod
	// UnitScore 单位分值（计数: 每条流水的分值; 总和: 金额乘数）
	UnitScore decimal.Decimal
}

// ScopeTarget 固定绑定的目标。Level 为机构时 Code 存的是机构 id
// （历史数据如此，按字面处理，不做推断）。
type ScopeTarget struct {
	Code  string
	Level ScopeLevel
}

// StaffScope 工分项的员工取值范围描述。
// 固定: Targets 为显式的员工/科室/机构列表; 动态: Level 相对被考核员工展开。
type StaffScope struct {
	Mode    ScopeMode
	Level   ScopeLevel
	Targets []ScopeTarget
}

// SourceBinding 工分项 → 数据来源绑定。
type SourceBinding struct {
	ItemID string
	Source string
	Kind   SourceKind
}

// Assignment 员工的一条工分项考核任务：员工 × 工分项 × 权重。
type Assignment struct {
	StaffID string
	Item    WorkItem
	Rate    decimal.Decimal
	Sources []SourceBinding
	Scope   StaffScope
}

// Observation 来源解析出的一条带日期的量观测。
// 计数类来源 Value 恒为 1，金额类来源 Value 为金额。
type Observation struct {
	Date  time.Time
	Value decimal.Decimal
}

// PublicHealthDatasource 公卫来源的外部表配置。
type PublicHealthDatasource struct {
	Table      string
	DateColumn string
	// Columns 追加的过滤条件（完整谓词，来自系统配置，不含用户输入）
	Columns []string
}

// SourceCatalogueEntry 工分来源目录项。公卫来源带外部数据表配置，
// Scope 为员工时按公卫操作员过滤，否则按机构归属。
type SourceCatalogueEntry struct {
	ID         string
	Name       string
	Scope      ScopeLevel
	Datasource *PublicHealthDatasource
}

// 公卫来源目录。未配置 Datasource 的公卫来源直接跳过（配置缺口不报错）。
var sourceCatalogue = []SourceCatalogueEntry{
	{ID: "公卫数据.老年人健康管理", Name: "老年人健康管理", Scope: LevelStaff, Datasource: &PublicHealthDatasource{
		Table:      "ph_old_people_health",
		DateColumn: "main.checkupdate",
		Columns:    []string{"main.checkupdate is not null"},
	}},
	{ID: "公卫数据.高血压随访", Name: "高血压随访", Scope: LevelStaff, Datasource: &PublicHealthDatasource{
		Table:      "ph_hypertension_visit",
		DateColumn: "main.followupdate",
		Columns:    []string{"main.flag = true"},
	}},
	{ID: "公卫数据.糖尿病随访", Name: "糖尿病随访", Scope: LevelStaff, Datasource: &PublicHealthDatasource{
		Table:      "ph_diabetes_visit",
		DateColumn: "main.followupdate",
		Columns:    []string{"main.flag = true"},
	}},
	{ID: "公卫数据.健康档案建档", Name: "健康档案建档", Scope: LevelHospital, Datasource: &PublicHealthDatasource{
		Table:      "ph_person",
		DateColumn: "main.created_at",
		Columns:    []string{"main.archive = true"},
	}},
	{ID: "公卫数据.健康教育活动", Name: "健康教育活动", Scope: LevelHospital},
	{ID: "其他.门诊诊疗人次", Name: "门诊诊疗人次", Scope: LevelHospital},
	{ID: "其他.住院诊疗人次", Name: "住院诊疗人次", Scope: LevelHospital},
}

// LookupSource 在来源目录中查找，找不到返回 nil。
func LookupSource(id string) *SourceCatalogueEntry {
	for i := range sourceCatalogue {
		if sourceCatalogue[i].ID == id {
			return &sourceCatalogue[i]
		}
	}
	return nil
}

// ManualItemID 手工数据来源 id 的第二段是手工数据项 id。
func ManualItemID(source string) string {
	parts := strings.SplitN(source, ".", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
