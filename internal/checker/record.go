// Package checker validates sales-slip CSV exports against the business
// rule battery. This package has no transport or storage dependencies and
// can be driven by any frontend.
//
// Line numbering convention: physical lines are 1-based over the raw
// input. The header row occupies line 1 and is counted by the physical
// line counter, but it is never validated and data records are numbered
// 1..N with the header excluded. Both conventions are pinned by tests in
// engine_test.go.
package checker

import "strings"

// Business column positions, 1-based as the upstream export documents them.
const (
	ColStoreName    = 3  // branch that issued the slip
	ColRegisteredAt = 9  // registration timestamp, yyyy/mm/dd hh:mm:ss
	ColTradeType    = 10 // free-text trade classification; contains 返品 for returns
	ColSlipNumber   = 11
	ColDeptCode     = 25
	ColAmount       = 38
)

// Rule identifiers carried on violations. The first two are reader-level:
// they tag structural findings that are reported in the same stream as
// business rule findings so a single report covers everything.
const (
	RuleParse             = "parse"
	RuleColumnCount       = "column-count"
	RuleAmountConsistency = "amount-consistency"
	RuleDateFormat        = "date-format"
)

// Record is one logical CSV row annotated with the physical lines it
// spans in the original file. StartLine and EndLine are 1-based and
// inclusive; a record whose quoted cells contain two embedded line breaks
// has EndLine = StartLine + 2. Records are created by the Reader and
// never mutated afterwards.
type Record struct {
	Cells     []string
	StartLine int
	EndLine   int
}

// Cell returns the trimmed value of a 1-based business column. The second
// return is false when the record is too short to contain the column.
func (r Record) Cell(col int) (string, bool) {
	if col < 1 || col > len(r.Cells) {
		return "", false
	}
	return strings.TrimSpace(r.Cells[col-1]), true
}

// Violation is a single finding against one record. RecordIndex is the
// 1-based data record number (header excluded); StartLine and EndLine
// locate the record in the original file so a report can be rendered
// without re-reading the source.
type Violation struct {
	RecordIndex int    `json:"recordIndex"`
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
	RuleID      string `json:"ruleId"`
	Message     string `json:"message"`
}

// Report is the aggregated outcome of one check run.
type Report struct {
	// Records is the number of data records scanned (header excluded).
	Records int `json:"records"`
	// PhysicalLines is the physical line number of the last content seen,
	// including the header line.
	PhysicalLines int `json:"physicalLines"`
	// Violations in record order, then rule evaluation order.
	Violations []Violation `json:"violations"`
}

// CountByRule returns the number of violations per rule identifier.
func (r Report) CountByRule() map[string]int {
	counts := make(map[string]int)
	for _, v := range r.Violations {
		counts[v.RuleID]++
	}
	return counts
}
