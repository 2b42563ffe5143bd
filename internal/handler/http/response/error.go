package response

import (
	"errors"
	"net/http"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/employee"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/resignation"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/validator"
	"github.com/contactevin2u/AAHRMS-sub010/internal/statutory"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Conflicts carrying a payload
	var alreadyInPeriod *payrun.EmployeeAlreadyInPeriodError
	if errors.As(err, &alreadyInPeriod) {
		ConflictWithData(w, "EMPLOYEE_ALREADY_IN_PERIOD",
			"One or more employees already belong to a payroll run for this period",
			map[string]interface{}{"employee_ids": alreadyInPeriod.EmployeeIDs})
		return
	}
	var leavesPending *resignation.LeavesPendingError
	if errors.As(err, &leavesPending) {
		ConflictWithData(w, "LEAVES_PENDING", err.Error(),
			map[string]interface{}{"leaves": leavesPending.Leaves})
		return
	}

	switch {
	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Payroll run domain errors
	case errors.Is(err, payrun.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payrun.ErrItemNotFound):
		NotFound(w, "Payroll item not found")
	case errors.Is(err, payrun.ErrDuplicateRun):
		Conflict(w, "A payroll run already exists for this period and scope")
	case errors.Is(err, payrun.ErrRunFinalized):
		Conflict(w, "Payroll run is finalized and cannot be modified")
	case errors.Is(err, payrun.ErrConcurrencyConflict):
		Conflict(w, "Another operation on this payroll run is in progress")

	// Statutory engine errors
	case errors.Is(err, statutory.ErrTableMissing):
		BadRequest(w, "No statutory table is effective for the run period", nil)

	// Resignation domain errors
	case errors.Is(err, resignation.ErrNotFound):
		NotFound(w, "Resignation not found")
	case errors.Is(err, resignation.ErrAlreadyCompleted):
		Conflict(w, "Resignation is already completed")
	case errors.Is(err, resignation.ErrAlreadyCancelled):
		Conflict(w, "Resignation is already cancelled")
	case errors.Is(err, resignation.ErrNotCompleted):
		Conflict(w, "Resignation has not been completed")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
