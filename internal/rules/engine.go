package rules

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"retaildq/internal/dataset"
	pipeerrors "retaildq/internal/errors"
)

// Violation reports one failed rule with its failure counts.
type Violation struct {
	RuleID  string  `json:"rule_id"`
	Failed  int     `json:"failed"`
	Checked int     `json:"checked"`
	Mostly  float64 `json:"mostly"`
}

// Result is the outcome of submitting a batch against a rule set.
type Result struct {
	RuleSet    string      `json:"rule_set"`
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
}

// Validator is the capability interface the pipeline depends on. The
// core has no compile-time dependency on any concrete expectation
// framework; Engine is the built-in implementation.
type Validator interface {
	SubmitBatch(t *dataset.Table, ruleSet string) (Result, error)
}

// Engine evaluates configured rule sets over tables. Reference tables
// for dynamically computed membership sets are registered before
// submission.
type Engine struct {
	suites map[string][]Rule
	refs   map[string]*dataset.Table
	logger *slog.Logger
}

// NewEngine creates an engine with the given suites. Nil means the
// default suites.
func NewEngine(suites map[string][]Rule, logger *slog.Logger) *Engine {
	if suites == nil {
		suites = DefaultSuites()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		suites: suites,
		refs:   make(map[string]*dataset.Table),
		logger: logger.With(slog.String("component", "rules")),
	}
}

// RegisterReference makes a table available to set_from rules under
// its name. Registering again replaces the previous snapshot.
func (e *Engine) RegisterReference(t *dataset.Table) {
	e.refs[t.Name] = t
}

// SubmitBatch evaluates the named rule set over the table and returns
// the pass/fail outcome with the violated rule identifiers. Rule-set
// misconfiguration is an error; data failing a rule is not.
func (e *Engine) SubmitBatch(t *dataset.Table, ruleSet string) (Result, error) {
	suite, ok := e.suites[ruleSet]
	if !ok {
		return Result{}, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.SubmitBatch",
			fmt.Errorf("unknown rule set %q", ruleSet))
	}

	result := Result{RuleSet: ruleSet, Passed: true}
	for _, rule := range suite {
		failed, checked, err := e.evaluate(t, rule)
		if err != nil {
			return Result{}, err
		}
		if checked == 0 {
			continue
		}
		passFraction := float64(checked-failed) / float64(checked)
		if passFraction < rule.mostly() {
			result.Passed = false
			result.Violations = append(result.Violations, Violation{
				RuleID:  rule.Identifier(),
				Failed:  failed,
				Checked: checked,
				Mostly:  rule.mostly(),
			})
		}
	}

	e.logger.Info("Rule set evaluated",
		slog.String("rule_set", ruleSet),
		slog.String("table", t.Name),
		slog.Bool("passed", result.Passed),
		slog.Int("violations", len(result.Violations)))

	return result, nil
}

// evaluate counts rule failures over the table rows.
func (e *Engine) evaluate(t *dataset.Table, rule Rule) (failed, checked int, err error) {
	switch rule.Kind {
	case KindNotNull:
		return countFailures(t, func(r dataset.Row) bool {
			return strings.TrimSpace(r[rule.Column]) == ""
		}), t.Len(), nil

	case KindUnique:
		seen := make(map[string]struct{}, t.Len())
		return countFailures(t, func(r dataset.Row) bool {
			v := r[rule.Column]
			if _, dup := seen[v]; dup {
				return true
			}
			seen[v] = struct{}{}
			return false
		}), t.Len(), nil

	case KindRegex:
		re, reErr := regexp.Compile(rule.Pattern)
		if reErr != nil {
			return 0, 0, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.evaluate",
				fmt.Errorf("rule %s: invalid pattern: %w", rule.Identifier(), reErr))
		}
		return countFailures(t, func(r dataset.Row) bool {
			return !re.MatchString(r[rule.Column])
		}), t.Len(), nil

	case KindRange:
		return countFailures(t, func(r dataset.Row) bool {
			f, ok := parseFloat(r[rule.Column])
			if !ok {
				return true
			}
			if rule.Min != nil && f < *rule.Min {
				return true
			}
			return rule.Max != nil && f > *rule.Max
		}), t.Len(), nil

	case KindDateRange:
		min, max, boundsErr := rule.dateBounds(time.Now())
		if boundsErr != nil {
			return 0, 0, boundsErr
		}
		return countFailures(t, func(r dataset.Row) bool {
			d, parseErr := time.Parse("2006-01-02", r[rule.Column])
			if parseErr != nil {
				return true
			}
			return d.Before(min) || d.After(max)
		}), t.Len(), nil

	case KindCloseness:
		return countFailures(t, func(r dataset.Row) bool {
			stored, ok := parseFloat(r[rule.Column])
			if !ok {
				return true
			}
			product := 1.0
			for _, col := range rule.ProductOf {
				f, ok := parseFloat(r[col])
				if !ok {
					return true
				}
				product *= f
			}
			return math.Abs(stored-product) > rule.Tolerance
		}), t.Len(), nil

	case KindInSet:
		set, setErr := e.membershipSet(rule)
		if setErr != nil {
			return 0, 0, setErr
		}
		return countFailures(t, func(r dataset.Row) bool {
			_, ok := set[r[rule.Column]]
			return !ok
		}), t.Len(), nil

	default:
		return 0, 0, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.evaluate",
			fmt.Errorf("unknown rule kind %q", rule.Kind))
	}
}

// membershipSet resolves the allowed values for an in_set rule,
// combining static values with a dynamic reference set when both are
// configured.
func (e *Engine) membershipSet(rule Rule) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(rule.Values))
	for _, v := range rule.Values {
		set[v] = struct{}{}
	}
	if rule.SetFrom != nil {
		ref, ok := e.refs[rule.SetFrom.Table]
		if !ok {
			return nil, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.membershipSet",
				fmt.Errorf("rule %s: reference table %q not registered", rule.Identifier(), rule.SetFrom.Table))
		}
		for v := range ref.ValueSet(rule.SetFrom.Column) {
			set[v] = struct{}{}
		}
	}
	return set, nil
}

// dateBounds resolves the rule's date window; "today" as upper bound
// resolves at evaluation time.
func (r Rule) dateBounds(now time.Time) (time.Time, time.Time, error) {
	min := time.Time{}
	max := now.AddDate(1000, 0, 0)
	if r.MinDate != "" {
		d, err := time.Parse("2006-01-02", r.MinDate)
		if err != nil {
			return min, max, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.dateBounds",
				fmt.Errorf("rule %s: invalid min_date: %w", r.Identifier(), err))
		}
		min = d
	}
	if r.MaxDate != "" {
		if r.MaxDate == "today" {
			max = now.Truncate(24 * time.Hour)
		} else {
			d, err := time.Parse("2006-01-02", r.MaxDate)
			if err != nil {
				return min, max, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.dateBounds",
					fmt.Errorf("rule %s: invalid max_date: %w", r.Identifier(), err))
			}
			max = d
		}
	}
	return min, max, nil
}

func countFailures(t *dataset.Table, fails func(dataset.Row) bool) int {
	n := 0
	for _, r := range t.Rows {
		if fails(r) {
			n++
		}
	}
	return n
}

func parseFloat(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
