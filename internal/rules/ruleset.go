package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	pipeerrors "retaildq/internal/errors"
)

// Kind identifies a rule check type.
type Kind string

const (
	KindNotNull   Kind = "not_null"
	KindUnique    Kind = "unique"
	KindRegex     Kind = "regex"
	KindRange     Kind = "range"
	KindDateRange Kind = "date_range"
	KindCloseness Kind = "closeness"
	KindInSet     Kind = "in_set"
)

// SetRef points at a reference table column whose distinct values form
// a dynamically computed membership set, e.g. valid foreign keys.
type SetRef struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// Rule is a single data-quality expectation. Rules are configuration,
// not code: suites are declared in YAML and evaluated generically.
type Rule struct {
	ID     string `yaml:"id"`
	Kind   Kind   `yaml:"kind"`
	Column string `yaml:"column"`

	// Mostly is the minimum passing fraction for the rule to hold.
	// Zero means 1.0 (every row must pass).
	Mostly float64 `yaml:"mostly"`

	// Regex rules.
	Pattern string `yaml:"pattern"`

	// Numeric range rules.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`

	// Date range rules; ISO dates, "today" allowed as upper bound.
	MinDate string `yaml:"min_date"`
	MaxDate string `yaml:"max_date"`

	// Closeness rules: |column - product(product_of)| <= tolerance.
	Tolerance float64  `yaml:"tolerance"`
	ProductOf []string `yaml:"product_of"`

	// Set membership rules: static values or a dynamic reference.
	Values  []string `yaml:"values"`
	SetFrom *SetRef  `yaml:"set_from"`
}

// Identifier returns the rule's explicit ID, or a derived one.
func (r Rule) Identifier() string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%s:%s", r.Kind, r.Column)
}

// mostly returns the effective minimum passing fraction.
func (r Rule) mostly() float64 {
	if r.Mostly <= 0 {
		return 1.0
	}
	return r.Mostly
}

// suiteFile is the YAML document shape for rule-set configuration.
type suiteFile struct {
	RuleSets map[string][]Rule `yaml:"rule_sets"`
}

// LoadSuites parses rule-set definitions from YAML content.
func LoadSuites(data []byte) (map[string][]Rule, error) {
	var f suiteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.LoadSuites",
			fmt.Errorf("failed to parse rule sets: %w", err))
	}
	for name, set := range f.RuleSets {
		for _, rule := range set {
			if err := validateRule(rule); err != nil {
				return nil, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.LoadSuites",
					fmt.Errorf("rule set %s, rule %s: %w", name, rule.Identifier(), err))
			}
		}
	}
	return f.RuleSets, nil
}

// LoadSuitesFile reads rule-set definitions from a YAML file.
func LoadSuitesFile(path string) (map[string][]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipeerrors.New(pipeerrors.CodeRuleSet, "rules.LoadSuitesFile",
			fmt.Errorf("cannot read %s: %w", path, err))
	}
	return LoadSuites(data)
}

func validateRule(r Rule) error {
	switch r.Kind {
	case KindNotNull, KindUnique:
		if r.Column == "" {
			return fmt.Errorf("column is required")
		}
	case KindRegex:
		if r.Pattern == "" {
			return fmt.Errorf("pattern is required")
		}
	case KindRange:
		if r.Min == nil && r.Max == nil {
			return fmt.Errorf("at least one of min/max is required")
		}
	case KindDateRange:
		if r.MinDate == "" && r.MaxDate == "" {
			return fmt.Errorf("at least one of min_date/max_date is required")
		}
	case KindCloseness:
		if len(r.ProductOf) == 0 {
			return fmt.Errorf("product_of is required")
		}
	case KindInSet:
		if len(r.Values) == 0 && r.SetFrom == nil {
			return fmt.Errorf("values or set_from is required")
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

// DefaultSuites returns the standard expectation suites for the four
// retail entities. They can be replaced wholesale by a YAML file.
func DefaultSuites() map[string][]Rule {
	f := func(v float64) *float64 { return &v }
	return map[string][]Rule{
		"customers_suite": {
			{Kind: KindNotNull, Column: "id"},
			{Kind: KindUnique, Column: "id"},
			{Kind: KindNotNull, Column: "name"},
			{Kind: KindRegex, Column: "email", Pattern: `^[\w.-]+@[\w.-]+\.\w+$`},
			{Kind: KindRegex, Column: "phone", Pattern: `^\d{10,11}$`, Mostly: 0.95},
			{Kind: KindRegex, Column: "state", Pattern: `^[A-Z]{2}$`, Mostly: 0.95},
		},
		"products_suite": {
			{Kind: KindNotNull, Column: "id"},
			{Kind: KindUnique, Column: "id"},
			{Kind: KindNotNull, Column: "product_name"},
			{Kind: KindNotNull, Column: "category", Mostly: 0.95},
			{Kind: KindRange, Column: "price", Min: f(0)},
			{Kind: KindRange, Column: "stock", Min: f(0)},
		},
		"sales_suite": {
			{Kind: KindNotNull, Column: "id"},
			{Kind: KindUnique, Column: "id"},
			{Kind: KindRange, Column: "quantity", Min: f(1)},
			{Kind: KindRange, Column: "unit_price", Min: f(0)},
			// Possibly redundant after correction recomputes
			// total_value; kept as an independent configured check.
			{Kind: KindCloseness, Column: "total_value", ProductOf: []string{"quantity", "unit_price"}, Tolerance: 0.01, Mostly: 0.98},
			{Kind: KindDateRange, Column: "sale_date", MinDate: "1900-01-01", MaxDate: "today"},
			{Kind: KindInSet, Column: "customer_id", SetFrom: &SetRef{Table: "customers", Column: "id"}, Mostly: 0.99},
			{Kind: KindInSet, Column: "product_id", SetFrom: &SetRef{Table: "products", Column: "id"}, Mostly: 0.99},
		},
		"logistics_suite": {
			{Kind: KindNotNull, Column: "sale_id"},
			{Kind: KindInSet, Column: "sale_id", SetFrom: &SetRef{Table: "sales", Column: "id"}, Mostly: 0.99},
		},
	}
}
