package payrun

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/statutory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDecEqual(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s: %v", expected, actual, msgAndArgs)
}

func testCalculator(t *testing.T) Calculator {
	t.Helper()
	engine, err := statutory.NewEngine()
	require.NoError(t, err)
	return Calculator{Engine: engine, WorkingDays: 22, HoursPerDay: 8}
}

func testEmployee() employee.Employee {
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	return employee.Employee{
		ID:               "emp-1",
		CompanyID:        "co-1",
		EmployeeCode:     "E001",
		FullName:         "Tan Ah Kow",
		ICNumber:         "900615-10-1234",
		DOB:              &dob,
		IsCitizen:        true,
		HireDate:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:           employee.StatusActive,
		BasicSalary:      dec("3000"),
		SocsoCategory:    employee.SocsoCategoryFirst,
		PCBMaritalStatus: employee.MaritalSingle,
	}
}

func TestCalculator_SimpleMonthly(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	item := payrun.PayrollItem{BasicSalary: dec("3000")}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	assertDecEqual(t, "3000", result.BasicSalary)
	assertDecEqual(t, "3000", result.ProRatedBasic)
	assertDecEqual(t, "3000", result.GrossSalary)
	assertDecEqual(t, "330", result.EPFEmployee)
	assertDecEqual(t, "390", result.EPFEmployer)
	assertDecEqual(t, "14.75", result.SocsoEmployee)
	assertDecEqual(t, "51.65", result.SocsoEmployer)
	assertDecEqual(t, "5.90", result.EISEmployee)
	assertDecEqual(t, "5.90", result.EISEmployer)
	assertDecEqual(t, "0", result.PCB)
	assertDecEqual(t, "350.65", result.TotalDeductions)
	assertDecEqual(t, "2649.35", result.NetPay)
}

func TestCalculator_MidMonthJoiner(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()
	// 30-day month, hired on the 15th: 16 days employed.
	emp.HireDate = time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	item := payrun.PayrollItem{BasicSalary: dec("3000")}
	result, err := calc.Compute(emp, item, 2025, time.April)
	require.NoError(t, err)

	// Stored basic keeps the master figure; the pro-rated figure persists
	// next to it and gross carries the pro-rated pay.
	assertDecEqual(t, "3000", result.BasicSalary)
	assertDecEqual(t, "1600.00", result.ProRatedBasic)
	assertDecEqual(t, "1600.00", result.GrossSalary)
	// Statutory on the pro-rated wage, not the master 3000.
	assertDecEqual(t, "176", result.EPFEmployee)
	assertDecEqual(t, "208", result.EPFEmployer)
}

func TestCalculator_MidMonthLeaver(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()
	resigned := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	emp.ResignationDate = &resigned

	item := payrun.PayrollItem{BasicSalary: dec("3000")}
	result, err := calc.Compute(emp, item, 2025, time.April)
	require.NoError(t, err)

	// 20 of 30 days.
	assertDecEqual(t, "2000.00", result.ProRatedBasic)
	assertDecEqual(t, "2000.00", result.GrossSalary)
}

func TestCalculator_ResignedBeforeMonth(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()
	resigned := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	emp.ResignationDate = &resigned

	item := payrun.PayrollItem{BasicSalary: dec("3000")}
	result, err := calc.Compute(emp, item, 2025, time.April)
	require.NoError(t, err)

	assertDecEqual(t, "0", result.GrossSalary)
	assertDecEqual(t, "0", result.EPFEmployee)
	assertDecEqual(t, "0", result.NetPay)
}

func TestCalculator_Overtime(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()
	emp.BasicSalary = dec("2200")

	item := payrun.PayrollItem{
		BasicSalary: dec("2200"),
		OTHours:     dec("10"),
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	// 2200 / 22 / 8 * 10
	assertDecEqual(t, "125.00", result.OTAmount)
	assertDecEqual(t, "2325.00", result.GrossSalary)
}

func TestCalculator_PublicHolidayPay(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	item := payrun.PayrollItem{
		BasicSalary:  dec("2200"),
		PHDaysWorked: dec("2"),
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	// 2200 / 22 * 2
	assertDecEqual(t, "200.00", result.PHPay)
}

func TestCalculator_UnpaidLeave(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	item := payrun.PayrollItem{
		BasicSalary:     dec("2200"),
		UnpaidLeaveDays: dec("2"),
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	// Unpaid leave lands in deductions, not gross.
	assertDecEqual(t, "200.00", result.UnpaidLeaveDeduction)
	assertDecEqual(t, "2200", result.GrossSalary)
	assert.True(t, result.TotalDeductions.GreaterThanOrEqual(dec("200")))
}

func TestCalculator_GrossSumsAllEarnings(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	item := payrun.PayrollItem{
		BasicSalary:     dec("3000"),
		FixedAllowance:  dec("200"),
		Incentive:       dec("100"),
		Commission:      dec("150"),
		TradeCommission: dec("50"),
		Outstation:      dec("80"),
		Bonus:           dec("500"),
		ClaimsAmount:    dec("120.50"),
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	assertDecEqual(t, "4200.50", result.GrossSalary)
	// Statutory base excludes allowance, incentive, outstation and claims.
	// base = 3000 + 150 + 50 + 500 = 3700 -> EPF 11% = 407
	assertDecEqual(t, "407", result.EPFEmployee)
	assertDecEqual(t, result.GrossSalary.Sub(result.TotalDeductions).String(), result.NetPay)
}

func TestCalculator_ClaimsOverrideReplacesClaims(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	override := dec("75")
	item := payrun.PayrollItem{
		BasicSalary:    dec("3000"),
		ClaimsAmount:   dec("120"),
		ClaimsOverride: &override,
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	assertDecEqual(t, "3075", result.GrossSalary)
}

func TestCalculator_EPFOverrideReplacesEmployeeShareOnly(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	override := dec("0")
	item := payrun.PayrollItem{
		BasicSalary: dec("3000"),
		EPFOverride: &override,
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	assertDecEqual(t, "0", result.EPFEmployee)
	// Employer share is untouched by the override.
	assertDecEqual(t, "390", result.EPFEmployer)
}

func TestCalculator_PCBOverride(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	override := dec("123.45")
	item := payrun.PayrollItem{
		BasicSalary: dec("3000"),
		PCBOverride: &override,
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	assertDecEqual(t, "123.45", result.PCB)
}

func TestCalculator_AdvanceAndOtherDeductions(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	item := payrun.PayrollItem{
		BasicSalary:      dec("3000"),
		AdvanceDeduction: dec("300"),
		OtherDeductions:  dec("45.50"),
	}
	result, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)

	// 330 + 14.75 + 5.90 + 0 + 300 + 45.50
	assertDecEqual(t, "696.15", result.TotalDeductions)
	assertDecEqual(t, "2303.85", result.NetPay)
}

func TestCalculator_RecomputeIsIdempotent(t *testing.T) {
	calc := testCalculator(t)
	emp := testEmployee()

	item := payrun.PayrollItem{
		BasicSalary:  dec("3000"),
		OTHours:      dec("5"),
		ClaimsAmount: dec("80"),
	}
	first, err := calc.Compute(emp, item, 2025, time.January)
	require.NoError(t, err)
	second, err := calc.Compute(emp, first, 2025, time.January)
	require.NoError(t, err)

	assert.True(t, first.GrossSalary.Equal(second.GrossSalary))
	assert.True(t, first.TotalDeductions.Equal(second.TotalDeductions))
	assert.True(t, first.NetPay.Equal(second.NetPay))
}
