package httpapi

import (
	"encoding/json"
	"net/http"

	"his-appraisal/internal/domain"
	"his-appraisal/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettleHandler 结算与月度视图接口。
type SettleHandler struct {
	settle  repository.SettleRepo
	results repository.ResultRepo
	logger  *zap.Logger
}

func NewSettleHandler(settle repository.SettleRepo, results repository.ResultRepo, logger *zap.Logger) *SettleHandler {
	return &SettleHandler{settle: settle, results: results, logger: logger}
}

// Settle POST /settle {"month":"2026-08"}
// 结算是单向闸门：本引擎内不提供回退。
func (h *SettleHandler) Settle(w http.ResponseWriter, r *http.Request) {
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

	if err := h.settle.Settle(r.Context(), actor.HospitalID, month); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type overviewResponse struct {
	HospitalID string          `json:"hospitalId"`
	Month      string          `json:"month"`
	Settle     bool            `json:"settle"`
	TotalScore decimal.Decimal `json:"totalScore"`
}

// Overview GET /overview?month=2026-08 考核结果概览：结算状态 + 工分合计。
func (h *SettleHandler) Overview(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err)
		return
	}

	start, end := domain.MonthRange(month)
	settled, err := h.settle.IsSettled(r.Context(), actor.HospitalID, start)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := h.results.SumWorkScore(r.Context(), actor.HospitalID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(overviewResponse{
		HospitalID: actor.HospitalID,
		Month:      month.Format("2006-01"),
		Settle:     settled,
		TotalScore: total,
	}))
}

type itemTotalResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Score decimal.Decimal `json:"score"`
}

// WorkItemTotals GET /work-items/totals?month=2026-08 月度按工分项汇总。
func (h *SettleHandler) WorkItemTotals(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	month, err := parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err)
		return
	}

	start, end := domain.MonthRange(month)
	totals, err := h.results.WorkItemTotals(r.Context(), actor.HospitalID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]itemTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, itemTotalResponse{ID: t.ItemID, Name: t.Name, Score: t.Score})
	}
	writeJSON(w, http.StatusOK, Ok(out))
}
