package reports

import (
	"math"
	"sort"

	"fitbusiness/internal/domain/core"
)

const topRiskLimit = 5

type RiskDistribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type SectorSummary struct {
	Sector          core.Sector `json:"sector"`
	Companies       int         `json:"companies"`
	Employees       int         `json:"employees"`
	AverageFitScore int         `json:"averageFitScore"`
}

type CompanySummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	RiskIndex       int    `json:"riskIndex"`
	TotalEmployees  int    `json:"totalEmployees"`
	AverageFitScore int    `json:"averageFitScore"`
	HighRisk        int    `json:"highRiskEmployees"`
}

type Dashboard struct {
	Companies            int              `json:"companies"`
	Employees            int              `json:"employees"`
	AverageFitScore      int              `json:"averageFitScore"`
	AverageSleepHours    float64          `json:"averageSleepHours"`
	AverageStressPercent int              `json:"averageStressPercent"`
	RiskDistribution     RiskDistribution `json:"riskDistribution"`
	Sectors              []SectorSummary  `json:"sectors"`
	TopRiskCompanies     []CompanySummary `json:"topRiskCompanies"`
	FitScoreTrend        []core.Point     `json:"fitScoreTrend"`
}

type PersonalDashboard struct {
	Employee       core.Employee `json:"employee"`
	GoalsTotal     int           `json:"goalsTotal"`
	GoalsCompleted int           `json:"goalsCompleted"`
	FitScoreChange int           `json:"fitScoreChange"`
	CompanyAverage int           `json:"companyAverage"`
}

// BuildDashboard aggregates the given companies and employees. Averages use the
// same rounding as the company recalculator.
func BuildDashboard(companies []core.Company, employees []core.Employee) Dashboard {
	d := Dashboard{
		Companies:        len(companies),
		Employees:        len(employees),
		AverageFitScore:  core.AverageFitScore(employees),
		Sectors:          []SectorSummary{},
		TopRiskCompanies: []CompanySummary{},
		FitScoreTrend:    []core.Point{},
	}

	var sleep float64
	var stress, withMetrics int
	for _, e := range employees {
		switch core.RiskLevelFor(e.FitScore) {
		case core.RiskHigh:
			d.RiskDistribution.High++
		case core.RiskMedium:
			d.RiskDistribution.Medium++
		default:
			d.RiskDistribution.Low++
		}
		if e.Metrics != nil {
			sleep += e.Metrics.SleepHours
			stress += e.Metrics.StressPercent
			withMetrics++
		}
	}
	if withMetrics > 0 {
		d.AverageSleepHours = math.Round(sleep/float64(withMetrics)*10) / 10
		d.AverageStressPercent = int(math.Round(float64(stress) / float64(withMetrics)))
	}

	d.Sectors = sectorBreakdown(companies, employees)
	d.TopRiskCompanies = topRiskCompanies(companies, employees)
	d.FitScoreTrend = fitScoreTrend(employees)
	return d
}

func BuildPersonalDashboard(emp core.Employee, company core.Company) PersonalDashboard {
	p := PersonalDashboard{
		Employee:       emp,
		GoalsTotal:     len(emp.Goals),
		CompanyAverage: company.AverageFitScore,
	}
	for _, g := range emp.Goals {
		if g.Status == core.GoalCompleted {
			p.GoalsCompleted++
		}
	}
	if len(emp.History) > 0 {
		p.FitScoreChange = emp.FitScore - emp.History[0].Value
	}
	return p
}

func sectorBreakdown(companies []core.Company, employees []core.Employee) []SectorSummary {
	companySector := make(map[string]core.Sector, len(companies))
	companiesBySector := map[core.Sector]int{}
	for _, c := range companies {
		companySector[c.ID] = c.Sector
		companiesBySector[c.Sector]++
	}
	members := map[core.Sector][]core.Employee{}
	for _, e := range employees {
		sector, ok := companySector[e.CompanyID]
		if !ok {
			continue
		}
		members[sector] = append(members[sector], e)
	}
	out := []SectorSummary{}
	for _, sector := range core.Sectors {
		if companiesBySector[sector] == 0 {
			continue
		}
		out = append(out, SectorSummary{
			Sector:          sector,
			Companies:       companiesBySector[sector],
			Employees:       len(members[sector]),
			AverageFitScore: core.AverageFitScore(members[sector]),
		})
	}
	return out
}

func topRiskCompanies(companies []core.Company, employees []core.Employee) []CompanySummary {
	highRisk := map[string]int{}
	for _, e := range employees {
		if core.RiskLevelFor(e.FitScore) == core.RiskHigh {
			highRisk[e.CompanyID]++
		}
	}
	out := make([]CompanySummary, 0, len(companies))
	for _, c := range companies {
		out = append(out, CompanySummary{
			ID:              c.ID,
			Name:            c.Name,
			RiskIndex:       c.RiskIndex,
			TotalEmployees:  c.TotalEmployees,
			AverageFitScore: c.AverageFitScore,
			HighRisk:        highRisk[c.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskIndex != out[j].RiskIndex {
			return out[i].RiskIndex > out[j].RiskIndex
		}
		return out[i].AverageFitScore < out[j].AverageFitScore
	})
	if len(out) > topRiskLimit {
		out = out[:topRiskLimit]
	}
	return out
}

// fitScoreTrend averages the per-employee history by month label.
func fitScoreTrend(employees []core.Employee) []core.Point {
	sums := map[string]int{}
	counts := map[string]int{}
	for _, e := range employees {
		for _, p := range e.History {
			sums[p.Month] += p.Value
			counts[p.Month]++
		}
	}
	months := make([]string, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]core.Point, len(months))
	for i, m := range months {
		out[i] = core.Point{Month: m, Value: int(math.Round(float64(sums[m]) / float64(counts[m])))}
	}
	return out
}
