package employee

import (
	"context"
	"time"
)

// EmployeeRepository defines data access methods for employee master
// data. All methods include companyID to prevent cross-company access.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)

	// ListEligible returns active employees eligible for a payroll run
	// starting at monthStart: not deleted, not resigned before the month
	// starts, and belonging to the given department/outlet when scoped.
	ListEligible(ctx context.Context, companyID string, monthStart time.Time, departmentID, outletID *string) ([]Employee, error)

	// Partition keys for bulk run generation.
	ListDepartmentIDs(ctx context.Context, companyID string) ([]string, error)
	ListOutletIDs(ctx context.Context, companyID string) ([]string, error)

	// MarkResigned flips status to resigned and records the last working
	// day. Called inside the resignation completion transaction.
	MarkResigned(ctx context.Context, id string, companyID string, lastWorkingDay time.Time) error
}
