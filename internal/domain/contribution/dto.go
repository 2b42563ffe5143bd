package contribution

import "github.com/shopspring/decimal"

// StatutoryTotal is one statutory body's rollup over a run.
type StatutoryTotal struct {
	Employee decimal.Decimal `json:"employee"`
	Employer decimal.Decimal `json:"employer"`
	Total    decimal.Decimal `json:"total"`
}

// Summary feeds the EPF/SOCSO/EIS/PCB exporters. GrandTotal is all
// money owed to statutory bodies for the run.
type Summary struct {
	RunID      string          `json:"run_id"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	EPF        StatutoryTotal  `json:"epf"`
	Socso      StatutoryTotal  `json:"socso"`
	EIS        StatutoryTotal  `json:"eis"`
	PCB        decimal.Decimal `json:"pcb"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// EmployeeBreakdown is one row of the per-employee detail view.
type EmployeeBreakdown struct {
	EmployeeCode  string          `json:"emp_code"`
	Name          string          `json:"name"`
	ICNumber      string          `json:"ic_number"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	EPFEmployee   decimal.Decimal `json:"epf_employee"`
	EPFEmployer   decimal.Decimal `json:"epf_employer"`
	SocsoEmployee decimal.Decimal `json:"socso_employee"`
	SocsoEmployer decimal.Decimal `json:"socso_employer"`
	EISEmployee   decimal.Decimal `json:"eis_employee"`
	EISEmployer   decimal.Decimal `json:"eis_employer"`
	PCB           decimal.Decimal `json:"pcb"`
}

type Details struct {
	Summary   Summary             `json:"summary"`
	Employees []EmployeeBreakdown `json:"employees"`
}

// MonthlyReport is one month's column of the yearly report.
type MonthlyReport struct {
	Month      int             `json:"month"`
	RunCount   int             `json:"run_count"`
	EPF        StatutoryTotal  `json:"epf"`
	Socso      StatutoryTotal  `json:"socso"`
	EIS        StatutoryTotal  `json:"eis"`
	PCB        decimal.Decimal `json:"pcb"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type YearlyReport struct {
	Year     int             `json:"year"`
	ScopeKey *string         `json:"scope,omitempty"`
	Months   []MonthlyReport `json:"months"`
	Total    MonthlyReport   `json:"total"`
}

// BankTransferRow is one line of the bank-transfer CSV source.
type BankTransferRow struct {
	EmployeeCode  string          `json:"emp_code"`
	Name          string          `json:"name"`
	BankName      string          `json:"bank_name"`
	AccountNumber string          `json:"account_number"`
	NetPay        decimal.Decimal `json:"net_pay"`
}

type BankTransfer struct {
	RunID string            `json:"run_id"`
	Rows  []BankTransferRow `json:"rows"`
	Total decimal.Decimal   `json:"total"`
}
