package payrun

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRunNotFound         = errors.New("payroll run not found")
	ErrItemNotFound        = errors.New("payroll item not found")
	ErrDuplicateRun        = errors.New("payroll run already exists for this period and scope")
	ErrRunFinalized        = errors.New("payroll run is finalized and cannot be modified")
	ErrConcurrencyConflict = errors.New("payroll run is locked by another operation")
)

// EmployeeAlreadyInPeriodError reports employees that would appear in
// two runs of the same (year, month).
type EmployeeAlreadyInPeriodError struct {
	EmployeeIDs []string
}

func (e *EmployeeAlreadyInPeriodError) Error() string {
	return fmt.Sprintf("employees already included in another run for this period: %s",
		strings.Join(e.EmployeeIDs, ", "))
}
