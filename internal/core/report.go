package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// ReportCSV renders the violation list as a UTF-8 CSV document with a
// header row, suitable for download and for opening in a spreadsheet.
func (r *CheckResult) ReportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"record", "start_line", "end_line", "rule", "message"}); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	for _, v := range r.Violations {
		row := []string{
			strconv.Itoa(v.RecordIndex),
			strconv.Itoa(v.StartLine),
			strconv.Itoa(v.EndLine),
			v.RuleID,
			v.Message,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush report: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFileName derives the download name for the violation report
// from the uploaded file name, e.g. "sales.csv" -> "sales_violations_20240105T123000.csv".
func (r *CheckResult) ReportFileName() string {
	stem := strings.TrimSuffix(r.FileName, ".csv")
	if stem == "" {
		stem = "upload"
	}
	return fmt.Sprintf("%s_violations_%s.csv", stem, r.CheckedAt.Format("20060102T150405"))
}
