package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"fitbusiness/internal/domain/core"
)

const TemplateFileName = "fitbusiness-import-template.csv"

var templateExamples = [][]string{
	{"Maria Silva", "maria.silva@empresa.com", "Analyst"},
	{"João Souza", "joao.souza@empresa.com", "Manager"},
}

// Template renders the downloadable CSV with the required header and two example rows.
func Template() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTemplate(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTemplate(out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write(requiredColumns); err != nil {
		return fmt.Errorf("write template header: %w", err)
	}
	for _, row := range templateExamples {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write template row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush template: %w", err)
	}
	return nil
}

// EmployeeInputs turns validated rows into store inputs. Every field not
// present in the CSV falls back to the employee defaults; admission is today.
func EmployeeInputs(companyID string, rows []ValidRow, now time.Time) []core.EmployeeInput {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]core.EmployeeInput, len(rows))
	for i, row := range rows {
		admission := today
		out[i] = core.EmployeeInput{
			CompanyID:     companyID,
			Name:          row.Name,
			Email:         row.Email,
			Title:         row.Title,
			AdmissionDate: &admission,
		}
	}
	return out
}
