package statutory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Params carries the per-employee inputs the statutory formulas need.
type Params struct {
	Age     int
	Citizen bool

	// VoluntaryEPFRate may raise the employee-side EPF rate only; nil or
	// a rate below the schedule has no effect.
	VoluntaryEPFRate *decimal.Decimal

	// SocsoExempt skips SOCSO and EIS entirely (e.g. sole proprietors).
	SocsoExempt bool

	// PCB parameters.
	Married       bool
	SpouseWorking bool
	Dependents    int
}

// Contributions is the statutory output for one employee-month.
type Contributions struct {
	EPFEmployee   decimal.Decimal
	EPFEmployer   decimal.Decimal
	SocsoEmployee decimal.Decimal
	SocsoEmployer decimal.Decimal
	EISEmployee   decimal.Decimal
	EISEmployer   decimal.Decimal
	PCB           decimal.Decimal
}

// Engine evaluates the EPF/SOCSO/EIS/PCB contracts against versioned
// rate tables. It is a pure function of (period, base, params); it
// carries no year-to-date state.
type Engine struct {
	versions []TableSet
}

// NewEngine loads the embedded tables.
func NewEngine() (*Engine, error) {
	versions, err := LoadTables()
	if err != nil {
		return nil, err
	}
	return &Engine{versions: versions}, nil
}

// NewEngineFromTables builds an engine over explicit tables. Exposed for
// unit testing the table contracts.
func NewEngineFromTables(versions []TableSet) *Engine {
	return &Engine{versions: versions}
}

// TablesFor selects the latest version effective on or before the
// period.
func (e *Engine) TablesFor(year int, month time.Month) (*TableSet, error) {
	period := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var selected *TableSet
	for i := range e.versions {
		if !e.versions[i].effective.After(period) {
			selected = &e.versions[i]
		}
	}
	if selected == nil {
		return nil, ErrTableMissing
	}
	return selected, nil
}

// Calculate evaluates every statutory contribution on the wage base for
// the given period. The base is the statutory wage: basic salary plus
// commissions and bonus; allowances and claim reimbursements are
// excluded upstream.
func (e *Engine) Calculate(year int, month time.Month, base decimal.Decimal, params Params) (Contributions, error) {
	tables, err := e.TablesFor(year, month)
	if err != nil {
		return Contributions{}, err
	}

	var c Contributions

	if base.Sign() <= 0 {
		return c, nil
	}

	// EPF: rates apply to the wage rounded to the nearest ringgit;
	// contributions round up to the next ringgit per KWSP convention.
	schedule, err := tables.EPF.ScheduleFor(params.Age, params.Citizen)
	if err != nil {
		return Contributions{}, err
	}
	epfBase := base.Round(0)
	employeeRate := decimal.NewFromFloat(schedule.EmployeeRate)
	if params.VoluntaryEPFRate != nil && params.VoluntaryEPFRate.GreaterThan(employeeRate) {
		employeeRate = *params.VoluntaryEPFRate
	}
	employerRate := decimal.NewFromFloat(schedule.EmployerRateLow)
	if epfBase.GreaterThan(decimal.NewFromFloat(schedule.WageThreshold)) {
		employerRate = decimal.NewFromFloat(schedule.EmployerRateHigh)
	}
	hundred := decimal.NewFromInt(100)
	c.EPFEmployee = epfBase.Mul(employeeRate).Div(hundred).RoundUp(0)
	c.EPFEmployer = epfBase.Mul(employerRate).Div(hundred).RoundUp(0)

	// SOCSO and EIS: banded fixed amounts.
	if !params.SocsoExempt {
		c.SocsoEmployee, c.SocsoEmployer = tables.Socso.Contribution(base, params.Age)
		c.EISEmployee, c.EISEmployer = tables.EIS.Contribution(base, params.Age)
	}

	// PCB: annualize the month's base, apply reliefs, run the
	// progressive scale, rebate, and bring it back to a month.
	c.PCB = e.monthlyPCB(tables.PCB, base, c.EPFEmployee, params)

	return c, nil
}

func (e *Engine) monthlyPCB(t PCBTable, base, epfEmployee decimal.Decimal, params Params) decimal.Decimal {
	twelve := decimal.NewFromInt(12)

	annual := base.Mul(twelve)

	relief := decimal.NewFromFloat(t.IndividualRelief)
	if params.Married && !params.SpouseWorking {
		relief = relief.Add(decimal.NewFromFloat(t.SpouseRelief))
	}
	relief = relief.Add(decimal.NewFromFloat(t.ChildRelief).Mul(decimal.NewFromInt(int64(params.Dependents))))

	epfRelief := epfEmployee.Mul(twelve)
	reliefCap := decimal.NewFromFloat(t.EPFReliefCap)
	if epfRelief.GreaterThan(reliefCap) {
		epfRelief = reliefCap
	}
	relief = relief.Add(epfRelief)

	chargeable := annual.Sub(relief)
	tax := t.AnnualTax(chargeable)

	if chargeable.LessThanOrEqual(decimal.NewFromFloat(t.RebateThreshold)) {
		tax = tax.Sub(decimal.NewFromFloat(t.IndividualRebate))
		if params.Married && !params.SpouseWorking {
			tax = tax.Sub(decimal.NewFromFloat(t.SpouseRebate))
		}
	}

	if tax.Sign() <= 0 {
		return decimal.Zero
	}
	return tax.Div(twelve).Round(2)
}
