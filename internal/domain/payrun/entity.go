package payrun

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusFinalized RunStatus = "finalized"
)

// ScopeKind enum
type ScopeKind string

const (
	ScopeAll        ScopeKind = "all"
	ScopeDepartment ScopeKind = "department"
	ScopeOutlet     ScopeKind = "outlet"
)

// Scope identifies the employee partition a run covers.
type Scope struct {
	Kind ScopeKind
	ID   string // department or outlet id; empty for ScopeAll
}

// Key renders the canonical scope key persisted on the run row:
// 'all' | 'dept:{id}' | 'outlet:{id}'.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeDepartment:
		return "dept:" + s.ID
	case ScopeOutlet:
		return "outlet:" + s.ID
	default:
		return "all"
	}
}

// ParseScopeKey is the inverse of Scope.Key.
func ParseScopeKey(key string) (Scope, error) {
	switch {
	case key == "all":
		return Scope{Kind: ScopeAll}, nil
	case strings.HasPrefix(key, "dept:"):
		return Scope{Kind: ScopeDepartment, ID: strings.TrimPrefix(key, "dept:")}, nil
	case strings.HasPrefix(key, "outlet:"):
		return Scope{Kind: ScopeOutlet, ID: strings.TrimPrefix(key, "outlet:")}, nil
	default:
		return Scope{}, fmt.Errorf("invalid scope key: %q", key)
	}
}

// PayrollRun - one monthly payroll computation for a partition of
// employees. At most one run exists per (company, year, month, scope).
type PayrollRun struct {
	ID        string
	CompanyID string
	Year      int
	Month     time.Month
	ScopeKey  string
	Status    RunStatus

	// Cached totals, recomputed inside the same transaction as any item
	// write.
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNet        decimal.Decimal
	EmployeeCount   int

	FinalizedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PayrollItem - one payslip row: exactly one per (run, employee).
type PayrollItem struct {
	ID         string
	RunID      string
	EmployeeID string

	// Earnings inputs
	BasicSalary     decimal.Decimal
	FixedAllowance  decimal.Decimal
	OTHours         decimal.Decimal
	PHDaysWorked    decimal.Decimal
	Incentive       decimal.Decimal
	Commission      decimal.Decimal
	TradeCommission decimal.Decimal
	Outstation      decimal.Decimal
	Bonus           decimal.Decimal
	ClaimsAmount    decimal.Decimal

	// Computed earnings. ProRatedBasic is the figure gross is built on:
	// equal to BasicSalary for full months, scaled for mid-month joiners
	// and leavers. BasicSalary itself stays the input figure.
	ProRatedBasic decimal.Decimal
	OTAmount      decimal.Decimal
	PHPay         decimal.Decimal
	GrossSalary   decimal.Decimal

	// Deduction inputs
	UnpaidLeaveDays  decimal.Decimal
	AdvanceDeduction decimal.Decimal
	OtherDeductions  decimal.Decimal

	// Computed deductions
	UnpaidLeaveDeduction decimal.Decimal
	EPFEmployee          decimal.Decimal
	EPFEmployer          decimal.Decimal
	SocsoEmployee        decimal.Decimal
	SocsoEmployer        decimal.Decimal
	EISEmployee          decimal.Decimal
	EISEmployer          decimal.Decimal
	PCB                  decimal.Decimal
	TotalDeductions      decimal.Decimal
	NetPay               decimal.Decimal

	// Manual overrides: nil means use the computed value.
	EPFOverride    *decimal.Decimal
	PCBOverride    *decimal.Decimal
	ClaimsOverride *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
	ICNumber     *string
}

// RunTotals is the rollup recomputed from items.
type RunTotals struct {
	Gross      decimal.Decimal
	Deductions decimal.Decimal
	Net        decimal.Decimal
	Count      int
}

// PeriodStart returns midnight on the first day of the run month.
func PeriodStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of calendar days in the run month.
func DaysInMonth(year int, month time.Month) int {
	return PeriodStart(year, month).AddDate(0, 1, -1).Day()
}

// PrevPeriod returns the (year, month) immediately before the given one.
func PrevPeriod(year int, month time.Month) (int, time.Month) {
	t := PeriodStart(year, month).AddDate(0, -1, 0)
	return t.Year(), t.Month()
}
