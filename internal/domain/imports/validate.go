package imports

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	ErrEmptyPayload   = errors.New("import file is empty")
	ErrMissingColumns = errors.New("import header is missing required columns")
)

const (
	ColumnName  = "nome"
	ColumnEmail = "email"
	ColumnTitle = "cargo"
)

var requiredColumns = []string{ColumnName, ColumnEmail, ColumnTitle}

var columnAliases = map[string]string{
	"name":  ColumnName,
	"title": ColumnTitle,
}

const (
	MsgNameRequired  = "name is required"
	MsgInvalidEmail  = "invalid or missing email"
	MsgTitleRequired = "title is required"
	MsgMalformedRow  = "malformed row"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ValidRow is a data line that passed every check. JSON names follow the CSV vocabulary.
type ValidRow struct {
	Name  string `json:"nome"`
	Email string `json:"email"`
	Title string `json:"cargo"`
}

// ErrorRow is a rejected data line. Line is the 1-based physical line number.
type ErrorRow struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
	Raw     string `json:"raw"`
}

type Result struct {
	Valid  []ValidRow `json:"valid"`
	Errors []ErrorRow `json:"errors"`
}

func (r Result) Total() int {
	return len(r.Valid) + len(r.Errors)
}

// Validate partitions a CSV payload into valid rows and error rows. Structural
// problems (no header, missing required columns) abort with an error and no
// rows. Each physical line is parsed on its own, so a stray quote only spoils
// its own line. The function is pure: the same payload always yields the same
// result.
func Validate(payload []byte) (Result, error) {
	payload = bytes.TrimPrefix(payload, utf8BOM)
	lines := strings.Split(string(payload), "\n")

	headerLine := 0
	for i, raw := range lines {
		if strings.TrimSpace(raw) != "" {
			headerLine = i + 1
			break
		}
	}
	if headerLine == 0 {
		return Result{}, ErrEmptyPayload
	}
	index, err := readHeader(rawLine(lines, headerLine))
	if err != nil {
		return Result{}, err
	}

	result := Result{Valid: []ValidRow{}, Errors: []ErrorRow{}}
	for line := headerLine + 1; line <= len(lines); line++ {
		raw := rawLine(lines, line)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		record, err := parseLine(raw)
		if err != nil {
			result.Errors = append(result.Errors, ErrorRow{Line: line, Message: MsgMalformedRow, Raw: raw})
			continue
		}
		row, msg := validateRecord(record, index)
		if msg != "" {
			result.Errors = append(result.Errors, ErrorRow{Line: line, Message: msg, Raw: raw})
			continue
		}
		result.Valid = append(result.Valid, row)
	}
	return result, nil
}

// parseLine splits one physical line on commas, honouring balanced quotes.
func parseLine(raw string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	record, err := reader.Read()
	if err != nil {
		return nil, err
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after record")
	}
	return record, nil
}

func readHeader(raw string) (map[string]int, error) {
	record, err := parseLine(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable header: %v", ErrMissingColumns, err)
	}
	index := map[string]int{}
	for i, token := range record {
		key := strings.ToLower(strings.TrimSpace(token))
		if canonical, ok := columnAliases[key]; ok {
			key = canonical
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

// validateRecord checks name, then e-mail, then title; the first failure wins.
func validateRecord(record []string, index map[string]int) (ValidRow, string) {
	row := ValidRow{
		Name:  field(record, index[ColumnName]),
		Email: field(record, index[ColumnEmail]),
		Title: field(record, index[ColumnTitle]),
	}
	switch {
	case row.Name == "":
		return ValidRow{}, MsgNameRequired
	case !emailPattern.MatchString(row.Email):
		return ValidRow{}, MsgInvalidEmail
	case row.Title == "":
		return ValidRow{}, MsgTitleRequired
	}
	return row, ""
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func rawLine(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}
