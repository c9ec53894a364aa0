package checker

// engine.go drives the rule battery over the record sequence. The engine
// owns the numbering conventions (header on line 1, data records indexed
// from 1) and the policy that nothing is ever dropped silently: schema
// mismatches and structural parse failures surface in the same violation
// stream as business rule findings.

import (
	"errors"
	"fmt"
	"io"
)

// Engine applies an ordered rule battery to every data record a Reader
// produces. It is stateless across runs and safe to reuse.
type Engine struct {
	columnCount int
	rules       []Rule
}

// NewEngine builds an engine for the given schema width and rule list.
// The rule order is the evaluation (and therefore report) order.
func NewEngine(columnCount int, rules []Rule) *Engine {
	return &Engine{columnCount: columnCount, rules: rules}
}

// Run consumes the reader to exhaustion and returns the aggregated
// report. The first record is the header: it is consumed, counted as a
// physical line, and never validated. Violations are ordered by record
// index, then by rule evaluation order within the record. A structural
// parse failure ends the run but keeps everything found before it.
func (e *Engine) Run(r *Reader) Report {
	var rep Report
	headerSeen := false
	index := 0

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rep
		}
		var pe *ParseError
		if errors.As(err, &pe) {
			rep.Violations = append(rep.Violations, Violation{
				RecordIndex: index + 1,
				StartLine:   pe.Line,
				EndLine:     pe.Line,
				RuleID:      RuleParse,
				Message:     pe.Reason,
			})
			if pe.Line > rep.PhysicalLines {
				rep.PhysicalLines = pe.Line
			}
			return rep
		}

		rep.PhysicalLines = rec.EndLine

		if !headerSeen {
			headerSeen = true
			continue
		}

		index++
		rep.Records = index

		if len(rec.Cells) != e.columnCount {
			rep.Violations = append(rep.Violations, Violation{
				RecordIndex: index,
				StartLine:   rec.StartLine,
				EndLine:     rec.EndLine,
				RuleID:      RuleColumnCount,
				Message:     fmt.Sprintf("record has %d cells, expected %d", len(rec.Cells), e.columnCount),
			})
		}

		for _, rule := range e.rules {
			for _, v := range rule.Check(rec) {
				v.RecordIndex = index
				v.StartLine = rec.StartLine
				v.EndLine = rec.EndLine
				rep.Violations = append(rep.Violations, v)
			}
		}
	}
}

// Check is a convenience that builds a Reader over raw bytes and runs
// the engine. The reader configuration error (unknown encoding name) is
// the only way this can fail before scanning starts.
func (e *Engine) Check(raw []byte, cfg ReaderConfig) (Report, error) {
	r, err := NewReader(raw, cfg)
	if err != nil {
		return Report{}, err
	}
	return e.Run(r), nil
}
