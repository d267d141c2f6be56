package httpapi

import (
	"net/http"

	"his-appraisal/internal/domain"
)

// Actor 当前操作者。认证在网关完成，网关注入身份头；
// 引擎入口只做机构边界校验，不再隐式读取全局上下文。
type Actor struct {
	StaffID    string
	HospitalID string
}

const (
	headerStaffID    = "X-Staff-Id"
	headerHospitalID = "X-Hospital-Id"
)

// ActorFromRequest 从网关注入的请求头取操作者身份。
func ActorFromRequest(r *http.Request) (*Actor, error) {
	hospitalID := r.Header.Get(headerHospitalID)
	if hospitalID == "" {
		return nil, domain.Invalidf("缺少机构身份")
	}
	return &Actor{
		StaffID:    r.Header.Get(headerStaffID),
		HospitalID: hospitalID,
	}, nil
}

// RequireHospital 跨机构访问在边界拒绝，不进引擎。
func (a *Actor) RequireHospital(hospitalID string) error {
	if hospitalID != a.HospitalID {
		return domain.Conflictf("无权操作其他机构数据")
	}
	return nil
}
