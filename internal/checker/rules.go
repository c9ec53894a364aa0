package checker

// rules.go defines the business rule battery. Each rule is a pure
// function over a single record: no cross-record lookups, no shared
// state, so every finding is explainable from one record's contents plus
// its line span. Adding a rule means appending an entry to the active
// rule list; the engine's traversal never changes.

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Rule pairs an identifier with a check over one record. Check fills
// RuleID and Message on the violations it returns; the engine stamps the
// record index and line span before aggregation, which keeps each rule
// independently testable against a bare Record.
type Rule struct {
	ID    string
	Check func(Record) []Violation
}

// DefaultRules returns the standard battery in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		AmountConsistencyRule(DefaultAmountRuleConfig()),
		DateFormatRule(),
	}
}

// AmountRuleConfig parameterizes the code/amount consistency rule.
type AmountRuleConfig struct {
	// Code is the department code that triggers the check.
	Code string
	// Amounts are the amounts acceptable under Code.
	Amounts []string
	// ReturnAmounts become additionally acceptable when the trade-type
	// column contains ReturnMarker.
	ReturnAmounts []string
	ReturnMarker  string
}

// DefaultAmountRuleConfig returns the production parameters.
func DefaultAmountRuleConfig() AmountRuleConfig {
	return AmountRuleConfig{
		Code:          "Z00014",
		Amounts:       []string{"3000", "5000"},
		ReturnAmounts: []string{"-3000", "-5000"},
		ReturnMarker:  "返品",
	}
}

// AmountConsistencyRule checks that records carrying the configured
// department code declare one of the allowed amounts. Records with any
// other department code are exempt. The violation message carries the
// store name and slip number so the report is actionable on its own.
func AmountConsistencyRule(cfg AmountRuleConfig) Rule {
	return Rule{
		ID: RuleAmountConsistency,
		Check: func(rec Record) []Violation {
			code, ok := rec.Cell(ColDeptCode)
			if !ok {
				return []Violation{missingColumn(RuleAmountConsistency, ColDeptCode, rec)}
			}
			if code != cfg.Code {
				return nil
			}

			amount, ok := rec.Cell(ColAmount)
			if !ok {
				return []Violation{missingColumn(RuleAmountConsistency, ColAmount, rec)}
			}

			allowed := cfg.Amounts
			if cfg.ReturnMarker != "" {
				if trade, ok := rec.Cell(ColTradeType); ok && strings.Contains(trade, cfg.ReturnMarker) {
					allowed = append(slices.Clip(allowed), cfg.ReturnAmounts...)
				}
			}
			if slices.Contains(allowed, amount) {
				return nil
			}

			store, _ := rec.Cell(ColStoreName)
			slip, _ := rec.Cell(ColSlipNumber)
			return []Violation{{
				RuleID: RuleAmountConsistency,
				Message: fmt.Sprintf("amount %q is not allowed for code %s (store %q, slip %q); expected one of %s",
					amount, cfg.Code, store, slip, strings.Join(allowed, ", ")),
			}}
		},
	}
}

var registeredAtPattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}$`)

const registeredAtLayout = "2006/01/02 15:04:05"

// DateFormatRule checks that the registration timestamp is present and
// matches yyyy/mm/dd hh:mm:ss exactly, zero padding included, and names
// a real calendar date. This is the only date check in the battery: the
// neighbouring historical timestamp columns are deliberately unchecked.
func DateFormatRule() Rule {
	return Rule{
		ID: RuleDateFormat,
		Check: func(rec Record) []Violation {
			value, ok := rec.Cell(ColRegisteredAt)
			if !ok {
				return []Violation{missingColumn(RuleDateFormat, ColRegisteredAt, rec)}
			}
			if value == "" {
				return []Violation{{
					RuleID:  RuleDateFormat,
					Message: fmt.Sprintf("column %d is empty; a yyyy/mm/dd hh:mm:ss timestamp is required", ColRegisteredAt),
				}}
			}
			if !registeredAtPattern.MatchString(value) {
				return []Violation{{
					RuleID:  RuleDateFormat,
					Message: fmt.Sprintf("column %d value %q does not match yyyy/mm/dd hh:mm:ss", ColRegisteredAt, value),
				}}
			}
			// The pattern pins shape and padding; time.Parse rejects
			// impossible calendar dates like 2024/02/30.
			if _, err := time.Parse(registeredAtLayout, value); err != nil {
				return []Violation{{
					RuleID:  RuleDateFormat,
					Message: fmt.Sprintf("column %d value %q is not a valid calendar date", ColRegisteredAt, value),
				}}
			}
			return nil
		},
	}
}

func missingColumn(ruleID string, col int, rec Record) Violation {
	return Violation{
		RuleID:  ruleID,
		Message: fmt.Sprintf("column %d is missing: record has only %d cells", col, len(rec.Cells)),
	}
}
