package core

import "time"

type Sector string

const (
	SectorTechnology Sector = "Technology"
	SectorIndustry   Sector = "Industry"
	SectorLogistics  Sector = "Logistics"
	SectorRetail     Sector = "Retail"
	SectorHealth     Sector = "Health"
)

var Sectors = []Sector{SectorTechnology, SectorIndustry, SectorLogistics, SectorRetail, SectorHealth}

type CompanyStatus string

const (
	CompanyStatusActive   CompanyStatus = "Active"
	CompanyStatusInactive CompanyStatus = "Inactive"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "Not Started"
	GoalInProgress GoalStatus = "In Progress"
	GoalCompleted  GoalStatus = "Completed"
)

// Point is one monthly sample of a score series. Month is formatted YYYY-MM.
type Point struct {
	Month string `json:"month"`
	Value int    `json:"value"`
}

type Company struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	TaxID     string        `json:"taxId"`
	Sector    Sector        `json:"sector"`
	Status    CompanyStatus `json:"status"`
	Address   string        `json:"address"`
	Contact   string        `json:"contact"`
	RiskIndex int           `json:"riskIndex"`
	// Derived from the employee set; never taken from callers.
	TotalEmployees  int       `json:"totalEmployees"`
	AverageFitScore int       `json:"averageFitScore"`
	RiskHistory     []Point   `json:"riskHistory"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type WellnessMetrics struct {
	SleepHours    float64 `json:"sleepHours"`
	StressPercent int     `json:"stressPercent"`
	Mood          int     `json:"mood"`
	Energy        int     `json:"energy"`
}

type ExercisePlan struct {
	Name      string `json:"name"`
	Target    string `json:"target"`
	Frequency string `json:"frequency"`
	Progress  int    `json:"progress"`
}

type Goal struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Status      GoalStatus `json:"status"`
}

type Employee struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"companyId"`
	CompanyName   string           `json:"companyName"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Title         string           `json:"title"`
	Sector        Sector           `json:"sector"`
	AdmissionDate time.Time        `json:"admissionDate"`
	FitScore      int              `json:"fitScore"`
	RiskLevel     RiskLevel        `json:"riskLevel"`
	Avatar        string           `json:"avatar"`
	History       []Point          `json:"history"`
	Metrics       *WellnessMetrics `json:"metrics,omitempty"`
	ExercisePlan  ExercisePlan     `json:"exercisePlan"`
	Goals         []Goal           `json:"goals"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func ParseSector(raw string) (Sector, bool) {
	for _, s := range Sectors {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

func ParseCompanyStatus(raw string) (CompanyStatus, bool) {
	switch CompanyStatus(raw) {
	case CompanyStatusActive, CompanyStatusInactive:
		return CompanyStatus(raw), true
	default:
		return "", false
	}
}

func ParseGoalStatus(raw string) (GoalStatus, bool) {
	switch GoalStatus(raw) {
	case GoalNotStarted, GoalInProgress, GoalCompleted:
		return GoalStatus(raw), true
	default:
		return "", false
	}
}

func (c Company) clone() Company {
	c.RiskHistory = append([]Point(nil), c.RiskHistory...)
	return c
}

func (e Employee) clone() Employee {
	e.History = append([]Point(nil), e.History...)
	e.Goals = cloneGoals(e.Goals)
	if e.Metrics != nil {
		m := *e.Metrics
		e.Metrics = &m
	}
	return e
}

func cloneGoals(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		if g.TargetDate != nil {
			d := *g.TargetDate
			g.TargetDate = &d
		}
		out[i] = g
	}
	return out
}
