package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"his-appraisal/internal/domain"

	"github.com/shopspring/decimal"
)

// 内存版 repo 实现，测试共用。

type fakeStaffRepo struct {
	staff           map[string]*domain.Staff
	hospitalDoctors map[string][]string
	hospitalPH      map[string][]string
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{
		staff:           map[string]*domain.Staff{},
		hospitalDoctors: map[string][]string{},
		hospitalPH:      map[string][]string{},
	}
}

func (f *fakeStaffRepo) add(s domain.Staff) {
	cp := s
	f.staff[s.ID] = &cp
}

func (f *fakeStaffRepo) GetStaff(ctx context.Context, id string) (*domain.Staff, error) {
	s, ok := f.staff[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStaffRepo) ListHospitalStaff(ctx context.Context, hospitalID string) ([]domain.Staff, error) {
	var out []domain.Staff
	for _, s := range f.staff {
		if s.HospitalID == hospitalID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) ListStaffIDsByDepartments(ctx context.Context, deptIDs []string) ([]string, error) {
	var out []string
	for _, s := range f.staff {
		for _, d := range deptIDs {
			if s.Department == d {
				out = append(out, s.ID)
			}
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) DepartmentCohort(ctx context.Context, staff *domain.Staff) ([]string, error) {
	if staff.Department == "" {
		return []string{staff.ID}, nil
	}
	var out []string
	for _, s := range f.staff {
		if s.Department == staff.Department || s.ID == staff.ID {
			out = append(out, s.ID)
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) DoctorIDs(ctx context.Context, staffIDs []string) ([]string, error) {
	var out []string
	for _, id := range staffIDs {
		if s, ok := f.staff[id]; ok && s.DoctorID != "" {
			out = append(out, s.DoctorID)
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) AllHospitalDoctorIDs(ctx context.Context, hospitalID string) ([]string, error) {
	return f.hospitalDoctors[hospitalID], nil
}

func (f *fakeStaffRepo) PHStaffIDs(ctx context.Context, staffIDs []string) ([]string, error) {
	var out []string
	for _, id := range staffIDs {
		if s, ok := f.staff[id]; ok && s.PHStaffID != "" {
			out = append(out, s.PHStaffID)
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) AllHospitalPHStaffIDs(ctx context.Context, hospitalID string) ([]string, error) {
	return f.hospitalPH[hospitalID], nil
}

type fakeWorkItemRepo struct {
	assignments map[string][]domain.Assignment
}

func (f *fakeWorkItemRepo) ListAssignments(ctx context.Context, staffID string) ([]domain.Assignment, error) {
	return f.assignments[staffID], nil
}

func resultKey(staffID string, day time.Time) string {
	return staffID + "|" + day.Format("2006-01-02")
}

// fakeResultRepo 会被 WorkScoreHospital 的并发扇出同时写，必须加锁。
type fakeResultRepo struct {
	mu      sync.Mutex
	work    map[string]*domain.WorkResult
	assess  map[string]*domain.AssessResult
	extra   map[string]decimal.Decimal
	saves   int
	failFor map[string]bool
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{
		work:   map[string]*domain.WorkResult{},
		assess: map[string]*domain.AssessResult{},
		extra:  map[string]decimal.Decimal{},
	}
}

func (f *fakeResultRepo) ReplaceWorkResult(ctx context.Context, r *domain.WorkResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[r.StaffID] {
		return errors.New("write failed")
	}
	cp := *r
	f.work[resultKey(r.StaffID, r.Day)] = &cp
	f.saves++
	return nil
}

func (f *fakeResultRepo) workFor(staffID string, day time.Time) *domain.WorkResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.work[resultKey(staffID, day)]
}

func (f *fakeResultRepo) GetAssessResult(ctx context.Context, staffID string, day time.Time) (*domain.AssessResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.assess[resultKey(staffID, day)]
	if !ok {
		return nil, nil
	}
	// 深拷贝：调用方会原地改
	raw, _ := json.Marshal(r)
	var cp domain.AssessResult
	_ = json.Unmarshal(raw, &cp)
	cp.StaffID = staffID
	cp.Day = day
	return &cp, nil
}

func (f *fakeResultRepo) SaveAssessResult(ctx context.Context, r *domain.AssessResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := json.Marshal(r)
	var cp domain.AssessResult
	_ = json.Unmarshal(raw, &cp)
	cp.StaffID = r.StaffID
	cp.Day = r.Day
	f.assess[resultKey(r.StaffID, r.Day)] = &cp
	f.saves++
	return nil
}

func (f *fakeResultRepo) UpsertExtraScore(ctx context.Context, staffID string, month time.Time, score decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extra[resultKey(staffID, month)] = score
	f.saves++
	return nil
}

func (f *fakeResultRepo) SumWorkScore(ctx context.Context, hospitalID string, start, end time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeResultRepo) WorkItemTotals(ctx context.Context, hospitalID string, start, end time.Time) ([]domain.ItemTotal, error) {
	return nil, nil
}

type fakeSettleRepo struct {
	settled   map[string]bool
	unsettled []string
}

func newFakeSettleRepo() *fakeSettleRepo {
	return &fakeSettleRepo{settled: map[string]bool{}}
}

func (f *fakeSettleRepo) IsSettled(ctx context.Context, hospitalID string, month time.Time) (bool, error) {
	return f.settled[resultKey(hospitalID, month)], nil
}

func (f *fakeSettleRepo) Settle(ctx context.Context, hospitalID string, month time.Time) error {
	f.settled[resultKey(hospitalID, month)] = true
	return nil
}

func (f *fakeSettleRepo) ListUnsettledHospitals(ctx context.Context, month time.Time) ([]string, error) {
	return f.unsettled, nil
}

type fakeChargeRepo struct {
	mu         sync.Mutex
	outpatient map[string][]domain.Observation
	inpatient  map[string][]domain.Observation
	visits     map[string][]domain.Observation
	lastDoctor []string
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{
		outpatient: map[string][]domain.Observation{},
		inpatient:  map[string][]domain.Observation{},
		visits:     map[string][]domain.Observation{},
	}
}

func (f *fakeChargeRepo) OutpatientCharges(ctx context.Context, source string, doctorIDs []string, start, end time.Time) ([]domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDoctor = doctorIDs
	return f.outpatient[source], nil
}

func (f *fakeChargeRepo) InpatientCharges(ctx context.Context, source string, doctorIDs []string, start, end time.Time) ([]domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDoctor = doctorIDs
	return f.inpatient[source], nil
}

func (f *fakeChargeRepo) VisitCounts(ctx context.Context, hospitalID, chargeType string, start, end time.Time) ([]domain.Observation, error) {
	return f.visits[chargeType], nil
}

type fakeManualRepo struct {
	entries map[string][]domain.Observation
}

func (f *fakeManualRepo) Entries(ctx context.Context, itemID string, staffIDs []string, start, end time.Time) ([]domain.Observation, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}
	return f.entries[itemID], nil
}

type fakePublicHealthRepo struct {
	records      []domain.Observation
	lastOperator []string
}

func (f *fakePublicHealthRepo) Records(ctx context.Context, ds *domain.PublicHealthDatasource, hospitalID string, operatorIDs []string, start, end time.Time) ([]domain.Observation, error) {
	f.lastOperator = operatorIDs
	return f.records, nil
}

type fakeRuleRepo struct {
	system *domain.CheckSystem
	rules  []domain.CheckRule
}

func (f *fakeRuleRepo) CheckSystemOfStaff(ctx context.Context, staffID string) (*domain.CheckSystem, error) {
	return f.system, nil
}

func (f *fakeRuleRepo) ListRules(ctx context.Context, checkID string) ([]domain.CheckRule, error) {
	return f.rules, nil
}

type fakeMetrics struct {
	snapshot *MetricSnapshot
}

func (f *fakeMetrics) Snapshot(ctx context.Context, hospitalID string, day time.Time) (*MetricSnapshot, error) {
	return f.snapshot, nil
}

type fakeQueue struct {
	jobs []MonthJob
}

func (f *fakeQueue) Submit(ctx context.Context, job MonthJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}
