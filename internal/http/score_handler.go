package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"
	"his-appraisal/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScoreHandler 打分相关接口：月度重算提交、手动打分、附加分。
type ScoreHandler struct {
	batch  *service.BatchService
	rules  *service.RuleService
	staff  repository.StaffRepo
	logger *zap.Logger
}

func NewScoreHandler(batch *service.BatchService, rules *service.RuleService, staff repository.StaffRepo, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{batch: batch, rules: rules, staff: staff, logger: logger}
}

// ScoreMonth POST /score/month {"month":"2026-08"}
// 仅提交后台任务，重算结果通过结果表观察。
func (h *ScoreHandler) ScoreMonth(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.Invalidf("请求体不合法"))
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.batch.ScoreMonth(r.Context(), actor.HospitalID, month); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// SetManualScore POST /score/manual {"ruleId":..,"staffId":..,"day":"2026-08-12","score":8}
func (h *ScoreHandler) SetManualScore(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		RuleID  string      `json:"ruleId"`
		StaffID string      `json:"staffId"`
		Day     string      `json:"day"`
		Score   json.Number `json:"score"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RuleID == "" || req.StaffID == "" {
		writeError(w, domain.Invalidf("缺少细则或员工"))
		return
	}
	day, err := parseDay(req.Day)
	if err != nil {
		writeError(w, err)
		return
	}
	score, err := parseScore(req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.checkStaffHospital(r, actor, req.StaffID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.rules.SetManualScore(r.Context(), actor.HospitalID, req.RuleID, req.StaffID, day, score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// SetExtraScore POST /score/extra {"staffId":..,"month":"2026-08","score":10}
func (h *ScoreHandler) SetExtraScore(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		StaffID string      `json:"staffId"`
		Month   string      `json:"month"`
		Score   json.Number `json:"score"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.StaffID == "" {
		writeError(w, domain.Invalidf("缺少员工"))
		return
	}
	month, err := parseMonth(req.Month)
	if err != nil {
		writeError(w, err)
		return
	}
	score, err := parseScore(req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.checkStaffHospital(r, actor, req.StaffID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.rules.SetExtraScore(r.Context(), actor.HospitalID, req.StaffID, month, score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// checkStaffHospital 被打分员工必须属于操作者机构。
func (h *ScoreHandler) checkStaffHospital(r *http.Request, actor *Actor, staffID string) error {
	staff, err := h.staff.GetStaff(r.Context(), staffID)
	if err != nil {
		return err
	}
	if staff == nil {
		return domain.Invalidf("员工不存在")
	}
	return actor.RequireHospital(staff.HospitalID)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return domain.Invalidf("请求体不合法")
	}
	return nil
}

func parseMonth(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", s, time.Local)
	if err != nil {
		return time.Time{}, domain.Invalidf("月份格式应为 YYYY-MM")
	}
	return t, nil
}

func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, domain.Invalidf("日期格式应为 YYYY-MM-DD")
	}
	return t, nil
}

func parseScore(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, domain.Invalidf("缺少分值")
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, domain.Invalidf("分值不是数字")
	}
	return d, nil
}
