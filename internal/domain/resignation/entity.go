package resignation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Resignation - a pending or processed resignation with its final
// settlement. Completion writes through to the employee's status and is
// irreversible by the engine.
type Resignation struct {
	ID             string
	CompanyID      string
	EmployeeID     string
	NoticeDate     time.Time
	LastWorkingDay time.Time
	Reason         *string
	Status         Status

	// Settlement
	UnusedLeaveDays      float64
	ProRatedSalary       decimal.Decimal
	LeaveEncashment      decimal.Decimal
	PendingClaims        decimal.Decimal
	TotalFinalSettlement decimal.Decimal

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}
