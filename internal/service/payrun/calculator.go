package payrun

import (
	"time"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/statutory"
	"github.com/shopspring/decimal"
)

// Calculator computes one payroll item from its raw inputs. It is a
// pure function of (employee, item inputs, period); persistence and
// locking live in the service around it.
type Calculator struct {
	Engine      *statutory.Engine
	WorkingDays int
	HoursPerDay int
}

// Compute fills every derived field on the item: pro-rated basic, OT,
// public-holiday pay, gross, unpaid-leave and statutory deductions, and
// net pay. Overrides on the item replace computed values where present.
func (c Calculator) Compute(emp employee.Employee, item payrun.PayrollItem, year int, month time.Month) (payrun.PayrollItem, error) {
	workingDays := decimal.NewFromInt(int64(c.WorkingDays))
	hoursPerDay := decimal.NewFromInt(int64(c.HoursPerDay))

	// Pro-ration for mid-period joiners and leavers happens before any
	// daily-rate math. The stored basic stays the full input figure so
	// recomputation never pro-rates twice; the pro-rated figure persists
	// alongside it so the row shows what gross was built on.
	basic := c.proRateBasic(emp, item.BasicSalary, year, month)
	item.ProRatedBasic = basic

	// OT: hourly rate off the (possibly pro-rated) basic. Rate
	// multipliers for PH/rest-day OT are already folded into ot_hours by
	// the inputs source.
	if item.OTHours.Sign() > 0 {
		hourly := basic.Div(workingDays).Div(hoursPerDay)
		item.OTAmount = round2(hourly.Mul(item.OTHours))
	} else {
		item.OTAmount = decimal.Zero
	}

	// Public-holiday pay at the daily rate.
	if item.PHDaysWorked.Sign() > 0 {
		item.PHPay = round2(basic.Div(workingDays).Mul(item.PHDaysWorked))
	} else {
		item.PHPay = decimal.Zero
	}

	// Claims are reimbursements; the override replaces the claimed total
	// when set.
	claims := item.ClaimsAmount
	if item.ClaimsOverride != nil {
		claims = *item.ClaimsOverride
	}

	item.GrossSalary = round2(decimal.Sum(
		basic,
		item.FixedAllowance,
		item.OTAmount,
		item.PHPay,
		item.Incentive,
		item.Commission,
		item.TradeCommission,
		item.Outstation,
		item.Bonus,
		claims,
	))

	// Unpaid leave reduces take-home inside total_deductions, not gross.
	if item.UnpaidLeaveDays.Sign() > 0 {
		item.UnpaidLeaveDeduction = round2(basic.Div(workingDays).Mul(item.UnpaidLeaveDays))
	} else {
		item.UnpaidLeaveDeduction = decimal.Zero
	}

	// Statutory wage base: fixed allowance and claim reimbursements are
	// excluded.
	base := decimal.Sum(basic, item.Commission, item.TradeCommission, item.Bonus)

	contrib, err := c.Engine.Calculate(year, month, base, statutoryParams(emp, year, month))
	if err != nil {
		return payrun.PayrollItem{}, err
	}

	item.EPFEmployee = contrib.EPFEmployee
	if item.EPFOverride != nil {
		item.EPFEmployee = *item.EPFOverride
	}
	item.EPFEmployer = contrib.EPFEmployer
	item.SocsoEmployee = contrib.SocsoEmployee
	item.SocsoEmployer = contrib.SocsoEmployer
	item.EISEmployee = contrib.EISEmployee
	item.EISEmployer = contrib.EISEmployer
	item.PCB = contrib.PCB
	if item.PCBOverride != nil {
		item.PCB = *item.PCBOverride
	}

	item.TotalDeductions = round2(decimal.Sum(
		item.EPFEmployee,
		item.SocsoEmployee,
		item.EISEmployee,
		item.PCB,
		item.AdvanceDeduction,
		item.OtherDeductions,
		item.UnpaidLeaveDeduction,
	))
	item.NetPay = item.GrossSalary.Sub(item.TotalDeductions)

	return item, nil
}

// proRateBasic scales the basic salary by days employed within the run
// month when the employee joined or left mid-period.
func (c Calculator) proRateBasic(emp employee.Employee, basic decimal.Decimal, year int, month time.Month) decimal.Decimal {
	monthStart := payrun.PeriodStart(year, month)
	daysInMonth := payrun.DaysInMonth(year, month)
	monthEnd := monthStart.AddDate(0, 0, daysInMonth-1)

	start := monthStart
	if emp.HireDate.After(monthStart) {
		start = emp.HireDate
	}
	end := monthEnd
	if emp.ResignationDate != nil && emp.ResignationDate.Before(monthEnd) {
		end = *emp.ResignationDate
	}

	if !start.After(monthStart) && !end.Before(monthEnd) {
		return basic
	}
	if end.Before(start) {
		return decimal.Zero
	}

	daysInPeriod := int(end.Sub(start).Hours()/24) + 1
	return round2(basic.
		Mul(decimal.NewFromInt(int64(daysInPeriod))).
		Div(decimal.NewFromInt(int64(daysInMonth))))
}

func statutoryParams(emp employee.Employee, year int, month time.Month) statutory.Params {
	return statutory.Params{
		Age:              emp.AgeAt(payrun.PeriodStart(year, month)),
		Citizen:          emp.IsCitizen,
		VoluntaryEPFRate: emp.EPFVoluntaryRate,
		SocsoExempt:      emp.SocsoCategory == employee.SocsoCategoryExempt,
		Married:          emp.PCBMaritalStatus == employee.MaritalMarried,
		SpouseWorking:    emp.PCBSpouseWorking,
		Dependents:       emp.PCBDependents,
	}
}

// round2 is two-decimal half-away-from-zero rounding: the money rounding
// used everywhere in the engine.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
