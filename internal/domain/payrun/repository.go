package payrun

import (
	"context"
	"time"
)

// RunRepository defines data access methods for payroll runs and items.
// All methods include companyID to prevent cross-company data access.
type RunRepository interface {
	// Runs
	CreateRun(ctx context.Context, run PayrollRun) (PayrollRun, error)
	GetRunByID(ctx context.Context, id string, companyID string) (PayrollRun, error)
	ListRuns(ctx context.Context, companyID string, filter RunFilter) ([]PayrollRun, error)
	FinalizeRun(ctx context.Context, id string, companyID string, totals RunTotals) (PayrollRun, error)
	UpdateRunTotals(ctx context.Context, id string, companyID string, totals RunTotals) error
	DeleteRun(ctx context.Context, id string, companyID string) error

	// Items
	CreateItem(ctx context.Context, item PayrollItem) (PayrollItem, error)
	GetItemByID(ctx context.Context, id string, companyID string) (PayrollItem, error)
	ListItemsByRun(ctx context.Context, runID string, companyID string) ([]PayrollItem, error)
	UpdateItem(ctx context.Context, item PayrollItem, companyID string) (PayrollItem, error)
	DeleteItem(ctx context.Context, id string, companyID string) error

	// SumTotals recomputes the run rollup from its items.
	SumTotals(ctx context.Context, runID string, companyID string) (RunTotals, error)

	// EmployeeIDsInPeriod returns, from the given candidates, the ids
	// already placed in any run of (year, month), optionally excluding
	// one run.
	EmployeeIDsInPeriod(ctx context.Context, companyID string, year int, month time.Month, employeeIDs []string, excludeRunID *string) ([]string, error)

	// FindPriorItem returns the employee's item from a finalized run of
	// the immediately preceding month, if any.
	FindPriorItem(ctx context.Context, companyID string, employeeID string, year int, month time.Month) (PayrollItem, error)

	// WorkingDays returns the company-year working days override, or
	// fallback when none is configured.
	WorkingDays(ctx context.Context, companyID string, year int, fallback int) (int, error)
}
