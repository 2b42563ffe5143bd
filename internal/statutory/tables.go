package statutory

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrTableMissing is returned when no table version covers the payroll
// period. Treated as fatal by callers; it surfaces to the operator.
var ErrTableMissing = errors.New("no statutory table version covers this period")

//go:embed tables.yaml
var embeddedTables []byte

// tablesFile is the on-disk shape of the versioned rate data.
type tablesFile struct {
	Versions []TableSet `yaml:"versions"`
}

// TableSet is one dated version of every statutory table. The engine
// picks the latest version whose effective_from is on or before the
// run's (year, month). Rates and thresholds live here as data; the
// engine carries no hardcoded bracket.
type TableSet struct {
	EffectiveFrom string    `yaml:"effective_from"` // "YYYY-MM"
	EPF           EPFTable  `yaml:"epf"`
	Socso         BandTable `yaml:"socso"`
	EIS           BandTable `yaml:"eis"`
	PCB           PCBTable  `yaml:"pcb"`

	effective time.Time
}

// Effective returns the parsed effective_from month.
func (t TableSet) Effective() time.Time { return t.effective }

// EPFSchedule is one KWSP rate row keyed by age band and citizenship.
// Employer rates split on the wage threshold (the RM5,000 rule).
type EPFSchedule struct {
	Name             string  `yaml:"name"`
	MinAge           int     `yaml:"min_age"`
	MaxAge           int     `yaml:"max_age"`
	Citizen          bool    `yaml:"citizen"`
	EmployeeRate     float64 `yaml:"employee_rate"`      // percent
	EmployerRateLow  float64 `yaml:"employer_rate_low"`  // wage <= threshold
	EmployerRateHigh float64 `yaml:"employer_rate_high"` // wage > threshold
	WageThreshold    float64 `yaml:"wage_threshold"`
}

type EPFTable struct {
	Schedules []EPFSchedule `yaml:"schedules"`
}

// ScheduleFor finds the applicable rate row.
func (t EPFTable) ScheduleFor(age int, citizen bool) (EPFSchedule, error) {
	for _, s := range t.Schedules {
		if age >= s.MinAge && age <= s.MaxAge && s.Citizen == citizen {
			return s, nil
		}
	}
	return EPFSchedule{}, fmt.Errorf("epf schedule for age %d citizen=%t: %w", age, citizen, ErrTableMissing)
}

// BandTable describes a banded contribution schedule (SOCSO, EIS).
// Wages in (step*(n-1), step*n] share one band; contributions are the
// band midpoint times the rate, rounded to the nearest 5 sen. Wages
// above the ceiling use the ceiling band. The reduced schedule applies
// from ReducedFromAge upward.
type BandTable struct {
	WageCeiling         float64 `yaml:"wage_ceiling"`
	BandStep            float64 `yaml:"band_step"`
	EmployeeRate        float64 `yaml:"employee_rate"` // percent
	EmployerRate        float64 `yaml:"employer_rate"` // percent
	ReducedFromAge      int     `yaml:"reduced_from_age"`
	ReducedEmployeeRate float64 `yaml:"reduced_employee_rate"`
	ReducedEmployerRate float64 `yaml:"reduced_employer_rate"`
}

// Band returns the band bounds for a wage.
func (t BandTable) Band(wage decimal.Decimal) (lower, upper decimal.Decimal) {
	ceiling := decimal.NewFromFloat(t.WageCeiling)
	step := decimal.NewFromFloat(t.BandStep)
	if wage.GreaterThan(ceiling) {
		wage = ceiling
	}
	n := wage.Div(step).Ceil()
	if n.Sign() <= 0 {
		n = decimal.NewFromInt(1)
	}
	upper = n.Mul(step)
	lower = upper.Sub(step)
	return lower, upper
}

// Contribution computes the employee and employer amounts for a wage at
// the given age.
func (t BandTable) Contribution(wage decimal.Decimal, age int) (emp, er decimal.Decimal) {
	empRate, erRate := t.EmployeeRate, t.EmployerRate
	if t.ReducedFromAge > 0 && age >= t.ReducedFromAge {
		empRate, erRate = t.ReducedEmployeeRate, t.ReducedEmployerRate
	}
	lower, upper := t.Band(wage)
	mid := lower.Add(upper).Div(decimal.NewFromInt(2))
	hundred := decimal.NewFromInt(100)
	emp = roundTo5Sen(mid.Mul(decimal.NewFromFloat(empRate)).Div(hundred))
	er = roundTo5Sen(mid.Mul(decimal.NewFromFloat(erRate)).Div(hundred))
	return emp, er
}

// PCBBracket is one marginal rate band of the annual tax scale.
type PCBBracket struct {
	UpTo float64 `yaml:"up_to"` // zero means no upper bound
	Rate float64 `yaml:"rate"`  // percent
}

// PCBTable parameterizes the monthly tax deduction formula.
type PCBTable struct {
	Brackets         []PCBBracket `yaml:"brackets"`
	IndividualRelief float64      `yaml:"individual_relief"`
	SpouseRelief     float64      `yaml:"spouse_relief"`
	ChildRelief      float64      `yaml:"child_relief"`
	EPFReliefCap     float64      `yaml:"epf_relief_cap"`
	RebateThreshold  float64      `yaml:"rebate_threshold"`
	IndividualRebate float64      `yaml:"individual_rebate"`
	SpouseRebate     float64      `yaml:"spouse_rebate"`
}

// AnnualTax applies the progressive scale to a chargeable income.
func (t PCBTable) AnnualTax(chargeable decimal.Decimal) decimal.Decimal {
	if chargeable.Sign() <= 0 {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	tax := decimal.Zero
	prev := decimal.Zero
	for _, b := range t.Brackets {
		upper := decimal.NewFromFloat(b.UpTo)
		unbounded := b.UpTo == 0
		if unbounded || chargeable.LessThan(upper) {
			upper = chargeable
		}
		if upper.GreaterThan(prev) {
			tax = tax.Add(upper.Sub(prev).Mul(decimal.NewFromFloat(b.Rate)).Div(hundred))
		}
		if unbounded || chargeable.LessThanOrEqual(decimal.NewFromFloat(b.UpTo)) {
			break
		}
		prev = decimal.NewFromFloat(b.UpTo)
	}
	return tax
}

// LoadTables parses the embedded versioned rate data.
func LoadTables() ([]TableSet, error) {
	return ParseTables(embeddedTables)
}

// ParseTables parses rate data from YAML. Exposed so tests can feed
// synthetic tables.
func ParseTables(data []byte) ([]TableSet, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse statutory tables: %w", err)
	}
	if len(f.Versions) == 0 {
		return nil, fmt.Errorf("statutory tables: no versions defined")
	}
	for i := range f.Versions {
		t, err := time.Parse("2006-01", f.Versions[i].EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("statutory tables: invalid effective_from %q: %w", f.Versions[i].EffectiveFrom, err)
		}
		f.Versions[i].effective = t
	}
	sort.Slice(f.Versions, func(i, j int) bool {
		return f.Versions[i].effective.Before(f.Versions[j].effective)
	})
	return f.Versions, nil
}

func roundTo5Sen(d decimal.Decimal) decimal.Decimal {
	twenty := decimal.NewFromInt(20)
	return d.Mul(twenty).Round(0).Div(twenty)
}
