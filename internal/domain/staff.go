package domain

import "time"

// Staff 考核系统内的员工。DoctorID/PHStaffID 是外部系统（HIS/公卫）的关联账号，
// 允许为空：未关联的员工在需要外部身份的工分来源上不产生流水。
type Staff struct {
	ID         string
	HospitalID string
	Name       string
	Department string
	DoctorID   string
	PHStaffID  string
	Major      string
	Title      string
	Education  string
	IsGP       bool
	CreatedAt  time.Time
}

// StaffCounts 机构人员构成统计，质量考核的指标原料。
type StaffCounts struct {
	GP            int // 全科医生数
	IncreasedGP   int // 本年新增全科医生数
	Nurse         int // 护士数
	Physician     int // 医师数
	Bachelor      int // 本科及以上卫生技术人员数
	HealthWorkers int // 卫生技术人员总数
	HighTitle     int // 高级职称卫生技术人员数
	TCM           int // 中医类别医师数
}

// 专业类别 → 人员分类。
type occupationClass struct {
	major        string
	isNurse      bool
	isPhysician  bool
	isTCM        bool
	healthWorker bool
}

var occupations = []occupationClass{
	{major: "临床", isPhysician: true, healthWorker: true},
	{major: "中医", isPhysician: true, isTCM: true, healthWorker: true},
	{major: "口腔", isPhysician: true, healthWorker: true},
	{major: "公共卫生", isPhysician: true, healthWorker: true},
	{major: "护理", isNurse: true, healthWorker: true},
	{major: "药学", healthWorker: true},
	{major: "医疗技术", healthWorker: true},
}

// 高级职称名单（正高/副高）。
var highTitles = map[string]bool{
	"主任医师":   true,
	"副主任医师":  true,
	"主任护师":   true,
	"副主任护师":  true,
	"主任药师":   true,
	"副主任药师":  true,
	"主任技师":   true,
	"副主任技师":  true,
}

const educationCollege = "大专"

func classify(major string) *occupationClass {
	for i := range occupations {
		if occupations[i].major == major {
			return &occupations[i]
		}
	}
	return nil
}

// CountStaff 按专业/职称/学历给花名册打标签并汇总人员构成。
// yearStart 用于计算本年新增全科医生数。
func CountStaff(roster []Staff, yearStart time.Time) StaffCounts {
	var c StaffCounts
	for _, s := range roster {
		if s.IsGP {
			c.GP++
			if !s.CreatedAt.Before(yearStart) {
				c.IncreasedGP++
			}
		}
		oc := classify(s.Major)
		if oc == nil {
			continue
		}
		if oc.isNurse {
			c.Nurse++
		}
		if oc.isPhysician {
			c.Physician++
		}
		if oc.isTCM {
			c.TCM++
		}
		if oc.healthWorker {
			c.HealthWorkers++
			// 学历非空且不是大专，视为本科及以上
			if s.Education != "" && s.Education != educationCollege {
				c.Bachelor++
			}
		}
		if highTitles[s.Title] {
			c.HighTitle++
		}
	}
	return c
}
