package service

import (
	"context"
	"testing"
	"time"

	"his-appraisal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ruleFixture struct {
	rules   *fakeRuleRepo
	results *fakeResultRepo
	settle  *fakeSettleRepo
	staff   *fakeStaffRepo
	metrics *fakeMetrics
	svc     *RuleService
}

func newRuleFixture() *ruleFixture {
	f := &ruleFixture{
		rules:   &fakeRuleRepo{},
		results: newFakeResultRepo(),
		settle:  newFakeSettleRepo(),
		staff:   newFakeStaffRepo(),
		metrics: &fakeMetrics{snapshot: &MetricSnapshot{}},
	}
	f.svc = NewRuleService(f.rules, f.results, f.settle, f.staff, f.metrics, zap.NewNop())
	return f
}

func (f *ruleFixture) withCheck(rules ...domain.CheckRule) {
	f.rules.system = &domain.CheckSystem{ID: "c1", HospitalID: "h1", Name: "基本考核"}
	f.rules.rules = rules
}

func egtRule(id string, value, score string) domain.CheckRule {
	return domain.CheckRule{
		ID:       id,
		CheckID:  "c1",
		Name:     "医护比",
		Auto:     true,
		Metric:   domain.MetricRatioOfMedicalAndNursing,
		Operator: domain.OperatorEgt,
		Value:    d(value),
		Score:    d(score),
	}
}

func manualRule(id string, score string) domain.CheckRule {
	return domain.CheckRule{ID: id, CheckID: "c1", Name: "服务态度", Score: d(score)}
}

// 医护比 = Physician / Nurse，用来给 egt 细则喂可控的实际值。
func snapshotRatio(physician, nurse int) *MetricSnapshot {
	return &MetricSnapshot{Counts: domain.StaffCounts{Physician: physician, Nurse: nurse}}
}

func TestScoreRuleOperators(t *testing.T) {
	his := func(v string) *MetricSnapshot {
		return &MetricSnapshot{Indicators: HISIndicators{HIS00: d(v)}}
	}
	hisRule := func(op domain.RuleOperator) domain.CheckRule {
		return domain.CheckRule{Auto: true, Metric: domain.MetricHIS00, Operator: op, Score: d("10")}
	}

	cases := []struct {
		name     string
		rule     domain.CheckRule
		snapshot *MetricSnapshot
		want     string
	}{
		{"Y01 为真得满分", hisRule(domain.OperatorYes), his("1"), "10"},
		{"Y01 为假得零分", hisRule(domain.OperatorYes), his("0"), "0"},
		{"N01 为假得满分", hisRule(domain.OperatorNo), his("0"), "10"},
		{"N01 为真得零分", hisRule(domain.OperatorNo), his("1"), "0"},
		{"egt 达标得满分", egtRule("r1", "10", "20"), snapshotRatio(15, 1), "20"},
		{"egt 不足按比例", egtRule("r1", "10", "20"), snapshotRatio(4, 1), "8"},
		{"egt 参考值为零得零分", egtRule("r1", "0", "20"), snapshotRatio(15, 1), "0"},
		{"egt 分母缺失得零分", egtRule("r1", "10", "20"), snapshotRatio(15, 0), "0"},
		{"未知指标得零分", domain.CheckRule{Auto: true, Metric: "NOPE", Operator: domain.OperatorYes, Score: d("10")}, his("1"), "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreRule(tc.rule, tc.snapshot)
			assert.True(t, got.Equal(d(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestAutoScoreStaff(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(egtRule("r1", "10", "20"), manualRule("r2", "10"))
	f.metrics.snapshot = snapshotRatio(15, 1)

	require.NoError(t, f.svc.AutoScoreStaff(context.Background(), "h1", "s1", testDay()))

	dayStart, _ := domain.DayRange(testDay())
	result := f.results.assess[resultKey("s1", dayStart)]
	require.NotNil(t, result)
	assert.Equal(t, "c1", result.SystemID)
	require.Len(t, result.Scores, 2)

	auto := result.Scores[0]
	require.NotNil(t, auto.Score)
	assert.True(t, auto.Score.Equal(d("20")))
	// 手动细则尚未打分
	assert.Nil(t, result.Scores[1].Score)
	// 质量系数 = Σ得分 / Σ满分 = 20 / 30
	assert.True(t, result.Rate.Equal(d("20").Div(d("30"))), "got %s", result.Rate)
}

func TestAutoScoreStaffSettledRejected(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(egtRule("r1", "10", "20"))
	month, _ := domain.MonthRange(testDay())
	require.NoError(t, f.settle.Settle(context.Background(), "h1", month))

	err := f.svc.AutoScoreStaff(context.Background(), "h1", "s1", testDay())
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Empty(t, f.results.assess)
}

func TestAutoScoreStaffWithoutCheckSystem(t *testing.T) {
	f := newRuleFixture()

	err := f.svc.AutoScoreStaff(context.Background(), "h1", "s1", testDay())
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestAutoScorePreservesManualScores(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(egtRule("r1", "10", "20"), manualRule("r2", "10"))
	f.metrics.snapshot = snapshotRatio(4, 1)

	manual := d("7")
	require.NoError(t, f.svc.SetManualScore(context.Background(), "h1", "r2", "s1", testDay(), manual))
	require.NoError(t, f.svc.AutoScoreStaff(context.Background(), "h1", "s1", testDay()))

	dayStart, _ := domain.DayRange(testDay())
	result := f.results.assess[resultKey("s1", dayStart)]
	require.NotNil(t, result)
	rs := result.FindScore("r2")
	require.NotNil(t, rs)
	require.NotNil(t, rs.Score)
	assert.True(t, rs.Score.Equal(manual))
	// 自动细则同时被重算：4/10 × 20 = 8
	auto := result.FindScore("r1")
	require.NotNil(t, auto.Score)
	assert.True(t, auto.Score.Equal(d("8")))
}

func TestAutoScoreCarriesForwardManualScores(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(egtRule("r1", "10", "20"), manualRule("r2", "10"))
	f.metrics.snapshot = snapshotRatio(15, 1)

	// 前一日已打手动分
	prevDay := testDay().AddDate(0, 0, -1)
	require.NoError(t, f.svc.SetManualScore(context.Background(), "h1", "r2", "s1", prevDay, d("5")))

	// 当日首次打分：手动分从前一日继承
	require.NoError(t, f.svc.AutoScoreStaff(context.Background(), "h1", "s1", testDay()))

	dayStart, _ := domain.DayRange(testDay())
	result := f.results.assess[resultKey("s1", dayStart)]
	require.NotNil(t, result)
	rs := result.FindScore("r2")
	require.NotNil(t, rs)
	require.NotNil(t, rs.Score)
	assert.True(t, rs.Score.Equal(d("5")))

	// 再跑一遍不改手动分
	require.NoError(t, f.svc.AutoScoreStaff(context.Background(), "h1", "s1", testDay()))
	result = f.results.assess[resultKey("s1", dayStart)]
	rs = result.FindScore("r2")
	require.NotNil(t, rs.Score)
	assert.True(t, rs.Score.Equal(d("5")))
}

func TestSetManualScoreValidation(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(egtRule("r1", "10", "20"), manualRule("r2", "10"))

	cases := []struct {
		name     string
		ruleID   string
		score    string
		conflict bool
	}{
		{"负分", "r2", "-1", false},
		{"超过满分", "r2", "10.5", false},
		{"细则不存在", "r9", "5", false},
		{"自动细则不能手动打分", "r1", "5", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.SetManualScore(context.Background(), "h1", tc.ruleID, "s1", testDay(), d(tc.score))
			require.Error(t, err)
			if tc.conflict {
				assert.True(t, domain.IsConflict(err))
			} else {
				assert.True(t, domain.IsValidation(err))
			}
		})
	}
	// 校验失败不落库
	assert.Empty(t, f.results.assess)
}

func TestSetManualScore(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(egtRule("r1", "10", "20"), manualRule("r2", "10"))

	require.NoError(t, f.svc.SetManualScore(context.Background(), "h1", "r2", "s1", testDay(), d("8")))

	dayStart, _ := domain.DayRange(testDay())
	result := f.results.assess[resultKey("s1", dayStart)]
	require.NotNil(t, result)
	rs := result.FindScore("r2")
	require.NotNil(t, rs)
	require.NotNil(t, rs.Score)
	assert.True(t, rs.Score.Equal(d("8")))
	// 满分刚好也允许
	require.NoError(t, f.svc.SetManualScore(context.Background(), "h1", "r2", "s1", testDay(), d("10")))
}

func TestSetManualScoreSettledRejected(t *testing.T) {
	f := newRuleFixture()
	f.withCheck(manualRule("r2", "10"))
	month, _ := domain.MonthRange(testDay())
	require.NoError(t, f.settle.Settle(context.Background(), "h1", month))

	err := f.svc.SetManualScore(context.Background(), "h1", "r2", "s1", testDay(), d("5"))
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestSetExtraScore(t *testing.T) {
	f := newRuleFixture()
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)

	require.NoError(t, f.svc.SetExtraScore(context.Background(), "h1", "s1", month, d("12")))
	assert.True(t, f.results.extra[resultKey("s1", month)].Equal(d("12")))

	require.NoError(t, f.settle.Settle(context.Background(), "h1", month))
	err := f.svc.SetExtraScore(context.Background(), "h1", "s1", month, d("15"))
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.True(t, f.results.extra[resultKey("s1", month)].Equal(d("12")))
}

func TestBatchScoreMonth(t *testing.T) {
	queue := &fakeQueue{}
	settle := newFakeSettleRepo()
	batch := NewBatchService(nil, nil, settle, queue, zap.NewNop())

	month := time.Date(2026, 8, 15, 8, 0, 0, 0, time.Local)
	require.NoError(t, batch.ScoreMonth(context.Background(), "h1", month))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "h1", queue.jobs[0].HospitalID)
	monthStart, _ := domain.MonthRange(month)
	assert.True(t, queue.jobs[0].Month.Equal(monthStart))

	require.NoError(t, settle.Settle(context.Background(), "h1", monthStart))
	err := batch.ScoreMonth(context.Background(), "h1", month)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Len(t, queue.jobs, 1)
}
