package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitbusiness/internal/domain/reports"
	"fitbusiness/internal/platform/logging"
)

type Key string

const (
	KeyOverview     Key = "overview"
	KeyRiskAnalysis Key = "riskAnalysis"
	KeyReport       Key = "report"
	KeyForecast     Key = "forecast"
)

var Keys = []Key{KeyOverview, KeyRiskAnalysis, KeyReport, KeyForecast}

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
)

const defaultTimeout = 8 * time.Second

var fallbacks = map[Key]string{
	KeyOverview: "Overall wellness is stable. Most employees sit in the medium risk band; " +
		"sleep quality and stress are the main levers for improving the average FitScore.",
	KeyRiskAnalysis: "High risk concentrates in a small number of companies. Prioritise follow-up " +
		"with employees below a FitScore of 60 and review workload where stress is above 60%.",
	KeyReport: "Monthly summary: FitScores held steady across sectors. Continue the current exercise " +
		"plans and schedule check-ins for employees whose score dropped this month.",
	KeyForecast: "If current trends hold, the average FitScore should improve slightly over the next " +
		"quarter. Companies with rising risk indexes need attention to avoid regression.",
}

func ParseKey(raw string) (Key, bool) {
	for _, k := range Keys {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}

// Fallback returns the static text for key.
func Fallback(key Key) string {
	return fallbacks[key]
}

type Insight struct {
	Key    Key    `json:"key"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Generator produces narrative text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Recorder interface {
	RecordInsight(key, source string)
}

type Service struct {
	generator Generator
	recorder  Recorder
	timeout   time.Duration
}

// NewService builds the insight service. A nil generator means every request
// resolves to the fallback text.
func NewService(generator Generator, recorder Recorder, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{generator: generator, recorder: recorder, timeout: timeout}
}

// Insight always resolves to some text. Generator errors, timeouts and empty
// answers fall back to the static text for the key.
func (s *Service) Insight(ctx context.Context, key Key, dash reports.Dashboard) Insight {
	out := Insight{Key: key, Text: Fallback(key), Source: SourceFallback}
	if s != nil && s.generator != nil {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := s.generator.Generate(cctx, Prompt(key, dash))
		cancel()
		switch {
		case err != nil:
			logging.FromContext(ctx).Warn("insight generation failed", "key", key, "err", err)
		case strings.TrimSpace(text) == "":
			logging.FromContext(ctx).Warn("insight generation returned empty text", "key", key)
		default:
			out.Text = strings.TrimSpace(text)
			out.Source = SourceAI
		}
	}
	if s != nil && s.recorder != nil {
		s.recorder.RecordInsight(string(key), out.Source)
	}
	return out
}

// Prompt renders the aggregate-only prompt for key. No individual employee
// data is sent to the generator.
func Prompt(key Key, dash reports.Dashboard) string {
	var b strings.Builder
	b.WriteString("You are a corporate wellness analyst. Answer in at most three short paragraphs.\n")
	fmt.Fprintf(&b, "Companies: %d. Employees: %d. Average FitScore: %d.\n", dash.Companies, dash.Employees, dash.AverageFitScore)
	fmt.Fprintf(&b, "Risk distribution: %d low, %d medium, %d high.\n",
		dash.RiskDistribution.Low, dash.RiskDistribution.Medium, dash.RiskDistribution.High)
	fmt.Fprintf(&b, "Average sleep: %.1f h. Average stress: %d%%.\n", dash.AverageSleepHours, dash.AverageStressPercent)
	for _, s := range dash.Sectors {
		fmt.Fprintf(&b, "Sector %s: %d companies, %d employees, average FitScore %d.\n", s.Sector, s.Companies, s.Employees, s.AverageFitScore)
	}
	for _, c := range dash.TopRiskCompanies {
		fmt.Fprintf(&b, "Company %s: risk index %d, average FitScore %d, %d high-risk employees.\n", c.Name, c.RiskIndex, c.AverageFitScore, c.HighRisk)
	}
	if n := len(dash.FitScoreTrend); n > 0 {
		fmt.Fprintf(&b, "FitScore trend from %s (%d) to %s (%d).\n",
			dash.FitScoreTrend[0].Month, dash.FitScoreTrend[0].Value, dash.FitScoreTrend[n-1].Month, dash.FitScoreTrend[n-1].Value)
	}

	switch key {
	case KeyOverview:
		b.WriteString("Give an overview of the general wellness of the workforce.")
	case KeyRiskAnalysis:
		b.WriteString("Analyse where burnout and health risk concentrate and what HR should do first.")
	case KeyReport:
		b.WriteString("Write a short monthly management report on these numbers.")
	case KeyForecast:
		b.WriteString("Forecast the next quarter of FitScore and risk based on the trend.")
	}
	return b.String()
}
