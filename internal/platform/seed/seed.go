package seed

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"fitbusiness/internal/domain/core"
)

//go:embed fixtures/companies.yaml
var defaultFixture []byte

// deterministicSeed keeps demo data stable across restarts unless random
// seeding is requested.
const deterministicSeed = 20240601

type CompanyFixture struct {
	Name      string `yaml:"name"`
	TaxID     string `yaml:"taxId"`
	Sector    string `yaml:"sector"`
	Status    string `yaml:"status"`
	Address   string `yaml:"address"`
	Contact   string `yaml:"contact"`
	RiskIndex int    `yaml:"riskIndex"`
	Employees int    `yaml:"employees"`
}

type PlanFixture struct {
	Name      string `yaml:"name"`
	Target    string `yaml:"target"`
	Frequency string `yaml:"frequency"`
}

type Fixture struct {
	Companies     []CompanyFixture    `yaml:"companies"`
	FirstNames    []string            `yaml:"firstNames"`
	LastNames     []string            `yaml:"lastNames"`
	Titles        map[string][]string `yaml:"titles"`
	ExercisePlans []PlanFixture       `yaml:"exercisePlans"`
	Goals         []string            `yaml:"goals"`
}

type Summary struct {
	Companies int
	Employees int
}

// LoadFixture reads the fixture at path, or the embedded one when path is empty.
func LoadFixture(path string) (Fixture, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Fixture{}, fmt.Errorf("seed: read fixture %s: %w", path, err)
		}
		data = b
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("seed: parse yaml: %w", err)
	}
	if err := fx.validate(); err != nil {
		return Fixture{}, err
	}
	return fx, nil
}

func (f Fixture) validate() error {
	if len(f.Companies) == 0 {
		return fmt.Errorf("seed: fixture has no companies")
	}
	if len(f.FirstNames) == 0 || len(f.LastNames) == 0 {
		return fmt.Errorf("seed: fixture needs firstNames and lastNames")
	}
	for i, c := range f.Companies {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("seed: companies[%d].name must be set", i)
		}
		if _, ok := core.ParseSector(c.Sector); c.Sector != "" && !ok {
			return fmt.Errorf("seed: companies[%d].sector %q is unknown", i, c.Sector)
		}
		if _, ok := core.ParseCompanyStatus(c.Status); c.Status != "" && !ok {
			return fmt.Errorf("seed: companies[%d].status %q is unknown", i, c.Status)
		}
		if c.Employees < 0 {
			return fmt.Errorf("seed: companies[%d].employees must not be negative", i)
		}
	}
	return nil
}

// NewRand returns the generator used for seeding.
func NewRand(random bool) *rand.Rand {
	if random {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(deterministicSeed, deterministicSeed))
}

// Populate fills the store with the fixture companies and generated employees.
// Each company gets one bulk add, so its aggregates are recomputed once.
func Populate(store *core.Store, fx Fixture, rng *rand.Rand, now time.Time) (Summary, error) {
	var sum Summary
	for _, cf := range fx.Companies {
		sector, _ := core.ParseSector(cf.Sector)
		status, _ := core.ParseCompanyStatus(cf.Status)
		risk := cf.RiskIndex
		company := store.AddCompany(core.CompanyInput{
			Name:        cf.Name,
			TaxID:       cf.TaxID,
			Sector:      sector,
			Status:      status,
			Address:     cf.Address,
			Contact:     cf.Contact,
			RiskIndex:   &risk,
			RiskHistory: walk(rng, risk, now, 8),
		})
		sum.Companies++

		inputs := make([]core.EmployeeInput, 0, cf.Employees)
		used := map[string]bool{}
		for i := 0; i < cf.Employees; i++ {
			inputs = append(inputs, fx.employee(rng, company, used, now))
		}
		added, err := store.BulkAddEmployees(company.ID, inputs)
		if err != nil {
			return sum, fmt.Errorf("seed: employees for %s: %w", company.Name, err)
		}
		sum.Employees += len(added)
	}
	return sum, nil
}

func (f Fixture) employee(rng *rand.Rand, company core.Company, used map[string]bool, now time.Time) core.EmployeeInput {
	var name, email string
	for attempt := 0; ; attempt++ {
		first := pick(rng, f.FirstNames)
		last := pick(rng, f.LastNames)
		name = first + " " + last
		email = emailFor(first, last, company.Name, attempt)
		if !used[email] {
			used[email] = true
			break
		}
	}

	score := 35 + rng.IntN(61)
	admission := now.AddDate(0, -rng.IntN(96)-1, -rng.IntN(28)).UTC().Truncate(24 * time.Hour)
	metrics := core.WellnessMetrics{
		SleepHours:    float64(50+rng.IntN(41)) / 10,
		StressPercent: clamp(100-score+rng.IntN(31)-15, 5, 95),
		Mood:          1 + rng.IntN(5),
		Energy:        1 + rng.IntN(5),
	}

	plan := core.DefaultExercisePlan()
	if len(f.ExercisePlans) > 0 {
		p := f.ExercisePlans[rng.IntN(len(f.ExercisePlans))]
		plan = core.ExercisePlan{Name: p.Name, Target: p.Target, Frequency: p.Frequency, Progress: rng.IntN(101)}
	}

	var goals []core.Goal
	for i, n := 0, rng.IntN(3); i < n && len(f.Goals) > 0; i++ {
		target := now.AddDate(0, 1+rng.IntN(6), 0).UTC().Truncate(24 * time.Hour)
		goals = append(goals, core.Goal{
			Description: pick(rng, f.Goals),
			TargetDate:  &target,
			Status:      []core.GoalStatus{core.GoalNotStarted, core.GoalInProgress, core.GoalCompleted}[rng.IntN(3)],
		})
	}

	titles := f.Titles[string(company.Sector)]
	title := "Analyst"
	if len(titles) > 0 {
		title = pick(rng, titles)
	}

	return core.EmployeeInput{
		CompanyID:     company.ID,
		Name:          name,
		Email:         email,
		Title:         title,
		AdmissionDate: &admission,
		FitScore:      &score,
		History:       walk(rng, score, now, 6),
		Metrics:       &metrics,
		ExercisePlan:  &plan,
		Goals:         goals,
	}
}

// walk produces a HistoryMonths series that ends exactly at last.
func walk(rng *rand.Rand, last int, now time.Time, step int) []core.Point {
	months := core.LastMonths(now, core.HistoryMonths)
	out := make([]core.Point, len(months))
	value := last
	for i := len(months) - 1; i >= 0; i-- {
		out[i] = core.Point{Month: months[i], Value: value}
		value = clamp(value+rng.IntN(2*step+1)-step, 0, 100)
	}
	return out
}

func emailFor(first, last, company string, attempt int) string {
	domain := strings.ToLower(strings.Fields(company)[0])
	local := strings.ToLower(ascii(first) + "." + ascii(last))
	if attempt > 0 {
		local = fmt.Sprintf("%s%d", local, attempt+1)
	}
	return local + "@" + ascii(domain) + ".example"
}

var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e", "í", "i",
	"ó", "o", "ô", "o", "õ", "o", "ú", "u", "ç", "c",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U",
)

func ascii(s string) string {
	return accents.Replace(s)
}

func pick(rng *rand.Rand, items []string) string {
	return items[rng.IntN(len(items))]
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
