package reports

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fitbusiness/internal/domain/core"
)

// WriteCompanyReport renders the company wellness report as PDF. Individual
// wellness metrics are never printed; only aggregates and FitScores.
func WriteCompanyReport(w io.Writer, company core.Company, employees []core.Employee, generatedAt time.Time) error {
	dash := BuildDashboard([]core.Company{company}, employees)
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(company.Name+" wellness report"), false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Wellness report: %s", company.Name)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Tax ID: %s    Sector: %s    Status: %s", company.TaxID, company.Sector, company.Status)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employees: %d", company.TotalEmployees))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Average FitScore: %d", company.AverageFitScore))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Risk index: %d", company.RiskIndex))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Risk distribution: %d low, %d medium, %d high",
		dash.RiskDistribution.Low, dash.RiskDistribution.Medium, dash.RiskDistribution.High))
	pdf.Ln(10)

	if len(company.RiskHistory) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Risk index history")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range company.RiskHistory {
			pdf.CellFormat(30, 6, p.Month, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprint(p.Value), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Employees")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 10)
	headers := []struct {
		label string
		width float64
	}{{"Name", 60}, {"Title", 55}, {"FitScore", 25}, {"Risk", 25}}
	for _, h := range headers {
		pdf.CellFormat(h.width, 7, h.label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	sorted := append([]core.Employee(nil), employees...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FitScore < sorted[j].FitScore })
	pdf.SetFont("Helvetica", "", 10)
	for _, e := range sorted {
		pdf.CellFormat(60, 6, tr(e.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, tr(e.Title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprint(e.FitScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, string(e.RiskLevel), "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}
