package resignation

import (
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	EmployeeID     string  `json:"employee_id"`
	NoticeDate     string  `json:"notice_date"`
	LastWorkingDay string  `json:"last_working_day"`
	Reason         *string `json:"reason,omitempty"`
}

func (r *CreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	notice, noticeOK := validator.IsValidDate(r.NoticeDate)
	if !noticeOK {
		errs = append(errs, validator.ValidationError{Field: "notice_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	lwd, lwdOK := validator.IsValidDate(r.LastWorkingDay)
	if !lwdOK {
		errs = append(errs, validator.ValidationError{Field: "last_working_day", Message: "must be a date in YYYY-MM-DD format"})
	}
	if noticeOK && lwdOK && lwd.Before(notice) {
		errs = append(errs, validator.ValidationError{Field: "last_working_day", Message: "must not be before notice_date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ProcessRequest struct {
	ConfirmLeaveCancellation bool `json:"confirm_leave_cancellation"`
}

type SettlementResponse struct {
	DaysWorked           int             `json:"days_worked"`
	DaysInMonth          int             `json:"days_in_month"`
	WorkingDays          int             `json:"working_days"`
	UnusedLeaveDays      float64         `json:"unused_leave_days"`
	ProRatedSalary       decimal.Decimal `json:"pro_rated_salary"`
	DailyRate            decimal.Decimal `json:"daily_rate"`
	LeaveEncashment      decimal.Decimal `json:"leave_encashment"`
	PendingClaims        decimal.Decimal `json:"pending_claims"`
	TotalFinalSettlement decimal.Decimal `json:"total_final_settlement"`
}

type Response struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name,omitempty"`
	EmployeeCode   string  `json:"employee_code,omitempty"`
	NoticeDate     string  `json:"notice_date"`
	LastWorkingDay string  `json:"last_working_day"`
	Reason         *string `json:"reason,omitempty"`
	Status         string  `json:"status"`

	Settlement SettlementResponse `json:"settlement"`

	CompletedAt *string `json:"completed_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type LeaveConflict struct {
	ID        string  `json:"id"`
	LeaveType string  `json:"leave_type"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Days      float64 `json:"days"`
	Status    string  `json:"status"`
}

type CheckLeavesResponse struct {
	Leaves []LeaveConflict `json:"leaves"`
}

type CleanupLeavesResponse struct {
	Cancelled []LeaveConflict `json:"cancelled"`
}
