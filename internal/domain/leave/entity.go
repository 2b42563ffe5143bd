package leave

import "time"

// LeaveRecord is the engine's view of the leave module: enough to gate
// resignation completion and to cancel leaves past the last working day.
// Leave application, approval and quota accrual live elsewhere.
type LeaveRecord struct {
	ID         string
	EmployeeID string
	LeaveType  string
	StartDate  time.Time
	EndDate    time.Time
	Days       float64
	Status     Status
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)
