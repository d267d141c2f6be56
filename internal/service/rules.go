package service

import (
	"context"
	"time"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RuleService 质量考核打分。自动细则每次重算覆盖，手动细则保留，
// 新建当日记录时从前一日继承手动分。
type RuleService struct {
	rules   repository.RuleRepo
	results repository.ResultRepo
	settle  repository.SettleRepo
	staff   repository.StaffRepo
	metrics MetricsProvider
	logger  *zap.Logger
}

func NewRuleService(
	rules repository.RuleRepo,
	results repository.ResultRepo,
	settle repository.SettleRepo,
	staff repository.StaffRepo,
	metrics MetricsProvider,
	logger *zap.Logger,
) *RuleService {
	return &RuleService{
		rules:   rules,
		results: results,
		settle:  settle,
		staff:   staff,
		metrics: metrics,
		logger:  logger,
	}
}

// AutoScoreHospital 机构全员考核打分。单个员工失败记日志后继续。
func (s *RuleService) AutoScoreHospital(ctx context.Context, hospitalID string, day time.Time) error {
	roster, err := s.staff.ListHospitalStaff(ctx, hospitalID)
	if err != nil {
		return err
	}
	snapshot, err := s.metrics.Snapshot(ctx, hospitalID, day)
	if err != nil {
		return err
	}
	for _, st := range roster {
		if err := s.autoScoreStaffWith(ctx, hospitalID, st.ID, day, snapshot); err != nil {
			s.logger.Error("auto score staff failed, unit skipped",
				zap.String("staff", st.ID),
				zap.Time("day", day),
				zap.Error(err),
			)
		}
	}
	return nil
}

// AutoScoreStaff 员工单日自动打分。
func (s *RuleService) AutoScoreStaff(ctx context.Context, hospitalID, staffID string, day time.Time) error {
	snapshot, err := s.metrics.Snapshot(ctx, hospitalID, day)
	if err != nil {
		return err
	}
	return s.autoScoreStaffWith(ctx, hospitalID, staffID, day, snapshot)
}

func (s *RuleService) autoScoreStaffWith(ctx context.Context, hospitalID, staffID string, day time.Time, snapshot *MetricSnapshot) error {
	month, _ := domain.MonthRange(day)
	settled, err := s.settle.IsSettled(ctx, hospitalID, month)
	if err != nil {
		return err
	}
	if settled {
		return domain.Conflictf("%s 已结算, 不能打分", month.Format("2006-01"))
	}

	system, rules, err := s.loadCheck(ctx, staffID)
	if err != nil {
		return err
	}

	dayStart, _ := domain.DayRange(day)
	result, err := s.loadOrSeedAssess(ctx, staffID, dayStart, system, rules)
	if err != nil {
		return err
	}

	// 细则以当前细则表为准重建：管理端删掉的细则不再保留，
	// 自动细则无条件重算，手动细则沿用已有分数
	scores := make([]domain.RuleScore, 0, len(rules))
	for _, rule := range rules {
		rs := domain.RuleScore{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Auto:     rule.Auto,
			Metric:   rule.Metric,
			Operator: rule.Operator,
			Value:    rule.Value,
			Total:    rule.Score,
		}
		if rule.Auto {
			score := scoreRule(rule, snapshot)
			rs.Score = &score
		} else if prev := result.FindScore(rule.ID); prev != nil {
			rs.Score = prev.Score
		}
		scores = append(scores, rs)
	}

	result.SystemID = system.ID
	result.SystemName = system.Name
	result.Scores = scores
	result.Rate = result.ComputeRate()
	return s.results.SaveAssessResult(ctx, result)
}

// SetManualScore 手动细则打分。校验全部通过后才写入。
func (s *RuleService) SetManualScore(ctx context.Context, hospitalID, ruleID, staffID string, day time.Time, score decimal.Decimal) error {
	if score.Sign() < 0 {
		return domain.Invalidf("分数不能为负")
	}

	month, _ := domain.MonthRange(day)
	settled, err := s.settle.IsSettled(ctx, hospitalID, month)
	if err != nil {
		return err
	}
	if settled {
		return domain.Conflictf("%s 已结算, 不能打分", month.Format("2006-01"))
	}

	system, rules, err := s.loadCheck(ctx, staffID)
	if err != nil {
		return err
	}

	var rule *domain.CheckRule
	for i := range rules {
		if rules[i].ID == ruleID {
			rule = &rules[i]
			break
		}
	}
	if rule == nil {
		return domain.Invalidf("无此考核细则")
	}
	if rule.Auto {
		return domain.Conflictf("此考核细则不能手动打分")
	}
	if score.GreaterThan(rule.Score) {
		return domain.Invalidf("分数不能高于细则的满分")
	}

	dayStart, _ := domain.DayRange(day)
	result, err := s.loadOrSeedAssess(ctx, staffID, dayStart, system, rules)
	if err != nil {
		return err
	}

	rs := result.FindScore(ruleID)
	if rs == nil {
		result.Scores = append(result.Scores, domain.RuleScore{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Auto:     rule.Auto,
			Metric:   rule.Metric,
			Operator: rule.Operator,
			Value:    rule.Value,
			Total:    rule.Score,
		})
		rs = &result.Scores[len(result.Scores)-1]
	}
	rs.Score = &score
	rs.Total = rule.Score
	result.Rate = result.ComputeRate()
	return s.results.SaveAssessResult(ctx, result)
}

// SetExtraScore 员工月度附加分，结算后冻结。
func (s *RuleService) SetExtraScore(ctx context.Context, hospitalID, staffID string, month time.Time, score decimal.Decimal) error {
	monthStart, _ := domain.MonthRange(month)
	settled, err := s.settle.IsSettled(ctx, hospitalID, monthStart)
	if err != nil {
		return err
	}
	if settled {
		return domain.Conflictf("机构已经结算, 不能修改附加分")
	}
	return s.results.UpsertExtraScore(ctx, staffID, monthStart, score)
}

func (s *RuleService) loadCheck(ctx context.Context, staffID string) (*domain.CheckSystem, []domain.CheckRule, error) {
	system, err := s.rules.CheckSystemOfStaff(ctx, staffID)
	if err != nil {
		return nil, nil, err
	}
	if system == nil {
		return nil, nil, domain.Conflictf("该员工无考核")
	}
	rules, err := s.rules.ListRules(ctx, system.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(rules) == 0 {
		return nil, nil, domain.Conflictf("考核方案没有细则")
	}
	return system, rules, nil
}

// loadOrSeedAssess 取当日考核记录；首次创建时用细则表播种，
// 并把前一日已打分的手动细则分数继承过来（只在首次创建时继承）。
func (s *RuleService) loadOrSeedAssess(ctx context.Context, staffID string, dayStart time.Time, system *domain.CheckSystem, rules []domain.CheckRule) (*domain.AssessResult, error) {
	result, err := s.results.GetAssessResult(ctx, staffID, dayStart)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	result = &domain.AssessResult{
		StaffID:    staffID,
		Day:        dayStart,
		SystemID:   system.ID,
		SystemName: system.Name,
	}
	for _, rule := range rules {
		result.Scores = append(result.Scores, domain.RuleScore{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Auto:     rule.Auto,
			Metric:   rule.Metric,
			Operator: rule.Operator,
			Value:    rule.Value,
			Total:    rule.Score,
		})
	}

	prev, err := s.results.GetAssessResult(ctx, staffID, dayStart.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	if prev != nil {
		for i := range result.Scores {
			if result.Scores[i].Auto {
				continue
			}
			if prevScore := prev.FindScore(result.Scores[i].RuleID); prevScore != nil && prevScore.Score != nil {
				result.Scores[i].Score = prevScore.Score
			}
		}
	}
	return result, nil
}

var one = decimal.NewFromInt(1)

// scoreRule 按细则算法对指标值打分：
// Y01 值为真得满分; N01 值为假得满分; egt 达标得满分、不足按比例。
// 指标取不到值（未知编码/分母为零）一律 0 分，不向外传播除零。
func scoreRule(rule domain.CheckRule, snapshot *MetricSnapshot) decimal.Decimal {
	actual, ok := snapshot.Metric(rule.Metric)
	if !ok {
		return decimal.Zero
	}
	switch rule.Operator {
	case domain.OperatorYes:
		if !actual.IsZero() {
			return rule.Score
		}
	case domain.OperatorNo:
		if actual.IsZero() {
			return rule.Score
		}
	case domain.OperatorEgt:
		if rule.Value.Sign() <= 0 {
			return decimal.Zero
		}
		rate := actual.Div(rule.Value)
		if rate.GreaterThan(one) {
			rate = one
		}
		if rate.Sign() < 0 {
			rate = decimal.Zero
		}
		return rule.Score.Mul(rate)
	}
	return decimal.Zero
}
