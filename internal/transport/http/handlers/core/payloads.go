package corehandler

import (
	"strconv"
	"strings"
	"time"

	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/transport/http/shared"
)

type pointPayload struct {
	Month string `json:"month" validate:"required,datetime=2006-01"`
	Value int    `json:"value" validate:"gte=0,lte=100"`
}

type companyPayload struct {
	Name        string         `json:"name" validate:"notblank,max=200"`
	TaxID       string         `json:"taxId" validate:"max=32"`
	Sector      string         `json:"sector" validate:"omitempty,oneof=Technology Industry Logistics Retail Health"`
	Status      string         `json:"status" validate:"omitempty,oneof=Active Inactive"`
	Address     string         `json:"address" validate:"max=300"`
	Contact     string         `json:"contact" validate:"max=200"`
	RiskIndex   *int           `json:"riskIndex" validate:"omitempty,gte=0,lte=100"`
	RiskHistory []pointPayload `json:"riskHistory" validate:"omitempty,max=60,dive"`
}

type metricsPayload struct {
	SleepHours    float64 `json:"sleepHours" validate:"gte=0,lte=24"`
	StressPercent int     `json:"stressPercent" validate:"gte=0,lte=100"`
	Mood          int     `json:"mood" validate:"gte=1,lte=5"`
	Energy        int     `json:"energy" validate:"gte=1,lte=5"`
}

type planPayload struct {
	Name      string `json:"name" validate:"notblank,max=120"`
	Target    string `json:"target" validate:"max=120"`
	Frequency string `json:"frequency" validate:"max=120"`
	Progress  int    `json:"progress" validate:"gte=0,lte=100"`
}

type goalPayload struct {
	ID          string `json:"id"`
	Description string `json:"description" validate:"notblank,max=300"`
	TargetDate  string `json:"targetDate"`
	Status      string `json:"status"`
}

type employeePayload struct {
	CompanyID     string          `json:"companyId"`
	Name          string          `json:"name" validate:"notblank,max=200"`
	Email         string          `json:"email" validate:"required,email,max=254"`
	Title         string          `json:"title" validate:"notblank,max=120"`
	AdmissionDate string          `json:"admissionDate"`
	FitScore      *int            `json:"fitScore" validate:"omitempty,gte=0,lte=100"`
	Avatar        string          `json:"avatar" validate:"omitempty,url"`
	Metrics       *metricsPayload `json:"metrics"`
	ExercisePlan  *planPayload    `json:"exercisePlan"`
	Goals         []goalPayload   `json:"goals" validate:"omitempty,max=50,dive"`
}

type bulkDeletePayload struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
}

func (p companyPayload) validate(v *shared.Validator) {
	v.Struct(p)
}

func (p companyPayload) input() core.CompanyInput {
	sector, _ := core.ParseSector(p.Sector)
	status, _ := core.ParseCompanyStatus(p.Status)
	return core.CompanyInput{
		Name:        p.Name,
		TaxID:       p.TaxID,
		Sector:      sector,
		Status:      status,
		Address:     strings.TrimSpace(p.Address),
		Contact:     strings.TrimSpace(p.Contact),
		RiskIndex:   p.RiskIndex,
		RiskHistory: points(p.RiskHistory),
	}
}

// validateUpdate adds the update-only rules. The risk history is kept by the
// store and only grows through riskIndex changes.
func (p companyPayload) validateUpdate(v *shared.Validator) {
	p.validate(v)
	if p.RiskHistory != nil {
		v.Add("riskHistory", "cannot be set on update; send riskIndex instead")
	}
}

// apply overlays the payload onto an existing company. Omitted optional
// fields keep their stored values.
func (p companyPayload) apply(c core.Company) core.Company {
	in := p.input()
	c.Name = strings.TrimSpace(in.Name)
	c.TaxID = strings.TrimSpace(in.TaxID)
	c.Address = in.Address
	c.Contact = in.Contact
	if in.Sector != "" {
		c.Sector = in.Sector
	}
	if in.Status != "" {
		c.Status = in.Status
	}
	if in.RiskIndex != nil {
		c.RiskIndex = *in.RiskIndex
	}
	return c
}

func (p employeePayload) validate(v *shared.Validator) (admission time.Time, goals []core.Goal) {
	v.Struct(p)
	if strings.TrimSpace(p.AdmissionDate) != "" {
		admission, _ = v.Date("admissionDate", p.AdmissionDate)
	}
	goals = make([]core.Goal, 0, len(p.Goals))
	seen := make(map[string]struct{}, len(p.Goals))
	for i, g := range p.Goals {
		if id := g.ID; id != "" {
			if _, dup := seen[id]; dup {
				v.Add(subField(fieldIndex("goals", i), "id"), "duplicates an earlier goal id")
			}
			seen[id] = struct{}{}
		}
		in, ok := g.input(v, fieldIndex("goals", i))
		if !ok {
			continue
		}
		goals = append(goals, core.Goal{ID: g.ID, Description: in.Description, TargetDate: in.TargetDate, Status: in.Status})
	}
	return admission, goals
}

func (p employeePayload) input(companyID string, admission time.Time, goals []core.Goal) core.EmployeeInput {
	in := core.EmployeeInput{
		CompanyID: companyID,
		Name:      p.Name,
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		Title:     p.Title,
		FitScore:  p.FitScore,
		Avatar:    p.Avatar,
		Goals:     goals,
	}
	if !admission.IsZero() {
		in.AdmissionDate = &admission
	}
	if p.Metrics != nil {
		m := core.WellnessMetrics(*p.Metrics)
		in.Metrics = &m
	}
	if p.ExercisePlan != nil {
		plan := core.ExercisePlan(*p.ExercisePlan)
		in.ExercisePlan = &plan
	}
	return in
}

// apply overlays the payload onto an existing employee. Goals are replaced
// only when the payload carries a goals array.
func (p employeePayload) apply(e core.Employee, admission time.Time, goals []core.Goal, newID func() string) core.Employee {
	in := p.input(e.CompanyID, admission, goals)
	if p.CompanyID != "" {
		e.CompanyID = p.CompanyID
	}
	e.Name = strings.TrimSpace(in.Name)
	e.Email = in.Email
	e.Title = strings.TrimSpace(in.Title)
	if in.AdmissionDate != nil {
		e.AdmissionDate = *in.AdmissionDate
	}
	if in.FitScore != nil {
		e.FitScore = *in.FitScore
	}
	if in.Avatar != "" {
		e.Avatar = in.Avatar
	}
	if in.Metrics != nil {
		e.Metrics = in.Metrics
	}
	if in.ExercisePlan != nil {
		e.ExercisePlan = *in.ExercisePlan
	}
	if p.Goals != nil {
		for i := range goals {
			if goals[i].ID == "" {
				goals[i].ID = newID()
			}
			if goals[i].Status == "" {
				goals[i].Status = core.GoalNotStarted
			}
		}
		e.Goals = goals
	}
	return e
}

// input converts the goal fields that struct tags cannot check. Callers run
// the struct validation themselves.
func (g goalPayload) input(v *shared.Validator, field string) (core.GoalInput, bool) {
	before := len(v.Issues())
	in := core.GoalInput{Description: strings.TrimSpace(g.Description)}
	if strings.TrimSpace(g.TargetDate) != "" {
		if date, ok := v.Date(subField(field, "targetDate"), g.TargetDate); ok {
			in.TargetDate = &date
		}
	}
	if g.Status != "" {
		status, ok := core.ParseGoalStatus(g.Status)
		if !ok {
			v.Add(subField(field, "status"), "must be one of: Not Started, In Progress, Completed")
		}
		in.Status = status
	}
	return in, len(v.Issues()) == before
}

func points(in []pointPayload) []core.Point {
	if in == nil {
		return nil
	}
	out := make([]core.Point, len(in))
	for i, p := range in {
		out[i] = core.Point(p)
	}
	return out
}

func fieldIndex(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

func subField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
