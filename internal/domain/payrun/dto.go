package payrun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Override carries the wire semantics for override fields: a missing
// field leaves the stored override unchanged, an empty string clears it
// (use the computed value), and a number replaces the computed value —
// including zero.
type Override struct {
	Present bool
	Clear   bool
	Value   decimal.Decimal
}

func (o *Override) UnmarshalJSON(b []byte) error {
	o.Present = true
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		o.Clear = true
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("override must be a number or empty string: %w", err)
	}
	o.Value = d
	return nil
}

// Apply merges the override into the stored pointer field.
func (o Override) Apply(current *decimal.Decimal) *decimal.Decimal {
	if !o.Present {
		return current
	}
	if o.Clear {
		return nil
	}
	v := o.Value
	return &v
}

// ========== RUN DTOs ==========

type CreateRunRequest struct {
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	DepartmentID *string `json:"department_id,omitempty"`
	OutletID     *string `json:"outlet_id,omitempty"`
}

func (r *CreateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be a valid year"})
	}
	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}
	if r.DepartmentID != nil && r.OutletID != nil {
		errs = append(errs, validator.ValidationError{Field: "scope", Message: "department_id and outlet_id are mutually exclusive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Scope resolves the request's partition.
func (r *CreateRunRequest) Scope() Scope {
	switch {
	case r.DepartmentID != nil:
		return Scope{Kind: ScopeDepartment, ID: *r.DepartmentID}
	case r.OutletID != nil:
		return Scope{Kind: ScopeOutlet, ID: *r.OutletID}
	default:
		return Scope{Kind: ScopeAll}
	}
}

type BulkGenerateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (r *BulkGenerateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be a valid year"})
	}
	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunResponse struct {
	ID              string          `json:"id"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	ScopeKey        string          `json:"scope"`
	Status          string          `json:"status"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
	ItemCount       int             `json:"item_count"`
	FinalizedAt     *string         `json:"finalized_at,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type CreateRunResponse struct {
	Run                 RunResponse `json:"run"`
	EmployeeCount       int         `json:"employee_count"`
	CarriedForwardCount int         `json:"carried_forward_count"`
	Warning             *string     `json:"warning,omitempty"`
}

// SkipReason enum for bulk generation.
const (
	SkipNoEmployees   = "no_employees"
	SkipAlreadyExists = "already_exists"
)

type SkippedPartition struct {
	ScopeKey string `json:"scope"`
	Reason   string `json:"reason"`
}

type BulkGenerateResponse struct {
	CreatedRuns []CreateRunResponse `json:"created_runs"`
	Skipped     []SkippedPartition  `json:"skipped"`
	Totals      BulkGenerateTotals  `json:"totals"`
}

type BulkGenerateTotals struct {
	RunsCreated int `json:"runs_created"`
	Employees   int `json:"employees"`
}

type RunFilter struct {
	Year     *int
	Month    *int
	ScopeKey *string
}

type RunDetailResponse struct {
	Run   RunResponse    `json:"run"`
	Items []ItemResponse `json:"items"`
}

// ========== ITEM DTOs ==========

type UpdateItemRequest struct {
	ID string `json:"-"`

	BasicSalary     *decimal.Decimal `json:"basic_salary,omitempty"`
	FixedAllowance  *decimal.Decimal `json:"fixed_allowance,omitempty"`
	OTHours         *decimal.Decimal `json:"ot_hours,omitempty"`
	PHDaysWorked    *decimal.Decimal `json:"ph_days_worked,omitempty"`
	Incentive       *decimal.Decimal `json:"incentive,omitempty"`
	Commission      *decimal.Decimal `json:"commission,omitempty"`
	TradeCommission *decimal.Decimal `json:"trade_commission,omitempty"`
	Outstation      *decimal.Decimal `json:"outstation,omitempty"`
	Bonus           *decimal.Decimal `json:"bonus,omitempty"`
	ClaimsAmount    *decimal.Decimal `json:"claims_amount,omitempty"`

	UnpaidLeaveDays  *decimal.Decimal `json:"unpaid_leave_days,omitempty"`
	AdvanceDeduction *decimal.Decimal `json:"advance_deduction,omitempty"`
	OtherDeductions  *decimal.Decimal `json:"other_deductions,omitempty"`

	EPFOverride    Override `json:"epf_override"`
	PCBOverride    Override `json:"pcb_override"`
	ClaimsOverride Override `json:"claims_override"`
}

func (r *UpdateItemRequest) Validate() error {
	var errs validator.ValidationErrors

	nonNegative := map[string]*decimal.Decimal{
		"basic_salary":      r.BasicSalary,
		"fixed_allowance":   r.FixedAllowance,
		"ot_hours":          r.OTHours,
		"ph_days_worked":    r.PHDaysWorked,
		"incentive":         r.Incentive,
		"commission":        r.Commission,
		"trade_commission":  r.TradeCommission,
		"outstation":        r.Outstation,
		"bonus":             r.Bonus,
		"claims_amount":     r.ClaimsAmount,
		"unpaid_leave_days": r.UnpaidLeaveDays,
		"advance_deduction": r.AdvanceDeduction,
		"other_deductions":  r.OtherDeductions,
	}
	for field, v := range nonNegative {
		if v != nil && v.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}

	overrides := map[string]Override{
		"epf_override":    r.EPFOverride,
		"pcb_override":    r.PCBOverride,
		"claims_override": r.ClaimsOverride,
	}
	for field, o := range overrides {
		if o.Present && !o.Clear && o.Value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ItemResponse struct {
	ID           string `json:"id"`
	RunID        string `json:"run_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	EmployeeCode string `json:"employee_code,omitempty"`
	ICNumber     string `json:"ic_number,omitempty"`

	BasicSalary     decimal.Decimal `json:"basic_salary"`
	FixedAllowance  decimal.Decimal `json:"fixed_allowance"`
	OTHours         decimal.Decimal `json:"ot_hours"`
	OTAmount        decimal.Decimal `json:"ot_amount"`
	PHDaysWorked    decimal.Decimal `json:"ph_days_worked"`
	PHPay           decimal.Decimal `json:"ph_pay"`
	Incentive       decimal.Decimal `json:"incentive"`
	Commission      decimal.Decimal `json:"commission"`
	TradeCommission decimal.Decimal `json:"trade_commission"`
	Outstation      decimal.Decimal `json:"outstation"`
	Bonus           decimal.Decimal `json:"bonus"`
	ClaimsAmount    decimal.Decimal `json:"claims_amount"`
	ProRatedBasic   decimal.Decimal `json:"pro_rated_basic"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`

	UnpaidLeaveDays      decimal.Decimal `json:"unpaid_leave_days"`
	UnpaidLeaveDeduction decimal.Decimal `json:"unpaid_leave_deduction"`
	EPFEmployee          decimal.Decimal `json:"epf_employee"`
	EPFEmployer          decimal.Decimal `json:"epf_employer"`
	SocsoEmployee        decimal.Decimal `json:"socso_employee"`
	SocsoEmployer        decimal.Decimal `json:"socso_employer"`
	EISEmployee          decimal.Decimal `json:"eis_employee"`
	EISEmployer          decimal.Decimal `json:"eis_employer"`
	PCB                  decimal.Decimal `json:"pcb"`
	AdvanceDeduction     decimal.Decimal `json:"advance_deduction"`
	OtherDeductions      decimal.Decimal `json:"other_deductions"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`

	EPFOverride    *decimal.Decimal `json:"epf_override,omitempty"`
	PCBOverride    *decimal.Decimal `json:"pcb_override,omitempty"`
	ClaimsOverride *decimal.Decimal `json:"claims_override,omitempty"`
}

type RecalculateResponse struct {
	Recalculated    int             `json:"recalculated"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// ========== CHANGE-SET DTOs ==========

type Change struct {
	ItemID   string          `json:"item_id"`
	Field    string          `json:"field"`
	NewValue decimal.Decimal `json:"new_value"`
	Reason   *string         `json:"reason,omitempty"`
}

type ChangeSetRequest struct {
	RunID   string   `json:"-"`
	Changes []Change `json:"changes"`
}

func (r *ChangeSetRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Changes) == 0 {
		errs = append(errs, validator.ValidationError{Field: "changes", Message: "at least one change is required"})
	}
	for i, c := range r.Changes {
		if validator.IsEmpty(c.ItemID) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("changes[%d].item_id", i), Message: "is required"})
		}
		if validator.IsEmpty(c.Field) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("changes[%d].field", i), Message: "is required"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ChangeResult struct {
	ItemID  string  `json:"item_id"`
	Success bool    `json:"success"`
	Error   *string `json:"error,omitempty"`
}

type ChangeSetResponse struct {
	Results         []ChangeResult  `json:"results"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// FormatTime renders timestamps the way every response in this API does.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
