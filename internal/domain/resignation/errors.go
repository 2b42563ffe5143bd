package resignation

import (
	"errors"
	"fmt"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/leave"
)

var (
	ErrNotFound         = errors.New("resignation not found")
	ErrAlreadyCompleted = errors.New("resignation already completed")
	ErrAlreadyCancelled = errors.New("resignation already cancelled")
	ErrNotCompleted     = errors.New("resignation is not completed")
)

// LeavesPendingError blocks completion until the caller confirms
// cancellation of leaves falling after the last working day.
type LeavesPendingError struct {
	Leaves []leave.LeaveRecord
}

func (e *LeavesPendingError) Error() string {
	return fmt.Sprintf("%d approved or pending leaves fall after the last working day; confirmation required", len(e.Leaves))
}
