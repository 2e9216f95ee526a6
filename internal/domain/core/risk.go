package core

import "math"

const (
	DefaultFitScore  = 70
	DefaultRiskIndex = 70
	HistoryMonths    = 12
)

// RiskLevelFor classifies a FitScore: below 60 is high risk, below 80 medium.
func RiskLevelFor(fitScore int) RiskLevel {
	switch {
	case fitScore < 60:
		return RiskHigh
	case fitScore < 80:
		return RiskMedium
	default:
		return RiskLow
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AverageFitScore is the arithmetic mean rounded half away from zero; 0 for no employees.
func AverageFitScore(employees []Employee) int {
	if len(employees) == 0 {
		return 0
	}
	sum := 0
	for _, e := range employees {
		sum += e.FitScore
	}
	return int(math.Round(float64(sum) / float64(len(employees))))
}
