package core

import (
	"net/url"
	"strings"
	"time"
)

const avatarBaseURL = "https://i.pravatar.cc/150?u="

// CompanyInput is a sparse company description. Zero values mean "use the default".
type CompanyInput struct {
	Name        string
	TaxID       string
	Sector      Sector
	Status      CompanyStatus
	Address     string
	Contact     string
	RiskIndex   *int
	RiskHistory []Point
}

// EmployeeInput is a sparse employee description. Zero values mean "use the default".
type EmployeeInput struct {
	CompanyID     string
	Name          string
	Email         string
	Title         string
	Sector        Sector
	AdmissionDate *time.Time
	FitScore      *int
	Avatar        string
	History       []Point
	Metrics       *WellnessMetrics
	ExercisePlan  *ExercisePlan
	Goals         []Goal
}

func DefaultWellnessMetrics() WellnessMetrics {
	return WellnessMetrics{SleepHours: 7, StressPercent: 40, Mood: 3, Energy: 3}
}

func DefaultExercisePlan() ExercisePlan {
	return ExercisePlan{
		Name:      "Light walking",
		Target:    "30 min per day",
		Frequency: "5x per week",
		Progress:  0,
	}
}

// AvatarFor derives a stable placeholder avatar URL from a seed such as an e-mail.
func AvatarFor(seed string) string {
	return avatarBaseURL + url.QueryEscape(strings.ToLower(strings.TrimSpace(seed)))
}

// FlatHistory returns HistoryMonths points of the same score ending at the month of now.
func FlatHistory(score int, now time.Time) []Point {
	months := LastMonths(now, HistoryMonths)
	out := make([]Point, len(months))
	for i, m := range months {
		out[i] = Point{Month: m, Value: score}
	}
	return out
}

// LastMonths lists n YYYY-MM labels, oldest first, ending at the month of now.
func LastMonths(now time.Time, n int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = first.AddDate(0, i-n+1, 0).Format("2006-01")
	}
	return out
}

// NewCompany merges input over the company defaults.
func NewCompany(id string, in CompanyInput, now time.Time) Company {
	c := Company{
		ID:              id,
		Name:            strings.TrimSpace(in.Name),
		TaxID:           strings.TrimSpace(in.TaxID),
		Sector:          SectorTechnology,
		Status:          CompanyStatusActive,
		Address:         in.Address,
		Contact:         in.Contact,
		RiskIndex:       DefaultRiskIndex,
		TotalEmployees:  0,
		AverageFitScore: DefaultFitScore,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Sector != "" {
		c.Sector = in.Sector
	}
	if in.Status != "" {
		c.Status = in.Status
	}
	if in.RiskIndex != nil {
		c.RiskIndex = clampScore(*in.RiskIndex)
	}
	if len(in.RiskHistory) > 0 {
		c.RiskHistory = append([]Point(nil), in.RiskHistory...)
	} else {
		c.RiskHistory = []Point{{Month: now.Format("2006-01"), Value: c.RiskIndex}}
	}
	return c
}

// NewEmployee merges input over the employee defaults. The company supplies
// the denormalised name and the default sector.
func NewEmployee(id string, in EmployeeInput, company Company, now time.Time, newGoalID func() string) Employee {
	e := Employee{
		ID:           id,
		CompanyID:    company.ID,
		CompanyName:  company.Name,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Title:        strings.TrimSpace(in.Title),
		Sector:       company.Sector,
		FitScore:     DefaultFitScore,
		Avatar:       in.Avatar,
		ExercisePlan: DefaultExercisePlan(),
		Goals:        []Goal{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Sector != "" {
		e.Sector = in.Sector
	}
	if in.AdmissionDate != nil {
		e.AdmissionDate = *in.AdmissionDate
	} else {
		e.AdmissionDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if in.FitScore != nil {
		e.FitScore = clampScore(*in.FitScore)
	}
	e.RiskLevel = RiskLevelFor(e.FitScore)
	if e.Avatar == "" {
		seed := e.Email
		if seed == "" {
			seed = id
		}
		e.Avatar = AvatarFor(seed)
	}
	if len(in.History) > 0 {
		e.History = append([]Point(nil), in.History...)
	} else {
		e.History = FlatHistory(e.FitScore, now)
	}
	metrics := DefaultWellnessMetrics()
	if in.Metrics != nil {
		metrics = *in.Metrics
	}
	e.Metrics = &metrics
	if in.ExercisePlan != nil {
		e.ExercisePlan = *in.ExercisePlan
	}
	used := make(map[string]struct{}, len(in.Goals))
	for _, g := range in.Goals {
		if _, taken := used[g.ID]; g.ID == "" || taken {
			g.ID = newGoalID()
		}
		used[g.ID] = struct{}{}
		if g.Status == "" {
			g.Status = GoalNotStarted
		}
		e.Goals = append(e.Goals, g)
	}
	return e
}
