package leave

import (
	"context"
	"time"
)

// LeaveRepository is the collaborator boundary the resignation engine
// talks to.
type LeaveRepository interface {
	// ListAfter returns approved and pending leaves starting strictly
	// after the given date.
	ListAfter(ctx context.Context, employeeID string, companyID string, after time.Time) ([]LeaveRecord, error)

	// CancelAfter cancels approved and pending leaves starting strictly
	// after the given date and restores their day balances. Returns the
	// cancelled records. Runs inside the caller's transaction when the
	// context carries one.
	CancelAfter(ctx context.Context, employeeID string, companyID string, after time.Time) ([]LeaveRecord, error)

	// UnusedEntitledDays returns the employee's remaining entitled leave
	// days for the given year.
	UnusedEntitledDays(ctx context.Context, employeeID string, companyID string, year int) (float64, error)
}
