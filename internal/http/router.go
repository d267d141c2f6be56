package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 标准库 http.ServeMux（不引第三方路由）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterScoreRoutes 打分接口。
func (r *Router) RegisterScoreRoutes(h *ScoreHandler) {
	r.Handle("/appraisal/api/v1/score/month", methodOnly(http.MethodPost, h.ScoreMonth))
	r.Handle("/appraisal/api/v1/score/manual", methodOnly(http.MethodPost, h.SetManualScore))
	r.Handle("/appraisal/api/v1/score/extra", methodOnly(http.MethodPost, h.SetExtraScore))
}

// RegisterSettleRoutes 结算与月度视图接口。
func (r *Router) RegisterSettleRoutes(h *SettleHandler) {
	r.Handle("/appraisal/api/v1/settle", methodOnly(http.MethodPost, h.Settle))
	r.Handle("/appraisal/api/v1/overview", methodOnly(http.MethodGet, h.Overview))
	r.Handle("/appraisal/api/v1/work-items/totals", methodOnly(http.MethodGet, h.WorkItemTotals))
}
