package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/leave"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/database"
)

type leaveRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepositoryImpl{db: db}
}

// ListAfter implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) ListAfter(ctx context.Context, employeeID string, companyID string, after time.Time) ([]leave.LeaveRecord, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, employee_id, leave_type, start_date, end_date, days, status
		FROM leave_requests
		WHERE employee_id = $1 AND company_id = $2
			AND start_date > $3
			AND status IN ($4, $5)
		ORDER BY start_date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, companyID, after, leave.StatusApproved, leave.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []leave.LeaveRecord
	for rows.Next() {
		var l leave.LeaveRecord
		err := rows.Scan(&l.ID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate, &l.Days, &l.Status)
		if err != nil {
			return nil, err
		}
		records = append(records, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// CancelAfter implements leave.LeaveRepository. Approved leaves hand
// their day balances back to the year's quota before the status flip;
// both statements run on the caller's querier, so inside a transaction
// the restore and the cancellation commit together.
func (r *leaveRepositoryImpl) CancelAfter(ctx context.Context, employeeID string, companyID string, after time.Time) ([]leave.LeaveRecord, error) {
	q := database.QuerierFrom(ctx, r.db)

	// Pending leaves never consumed quota, so only approved ones restore.
	restore := `
		UPDATE leave_quotas lq
		SET used_days = lq.used_days - d.days
		FROM (
			SELECT leave_type, EXTRACT(YEAR FROM start_date)::INT AS year, SUM(days) AS days
			FROM leave_requests
			WHERE employee_id = $1 AND company_id = $2
				AND start_date > $3
				AND status = $4
			GROUP BY leave_type, EXTRACT(YEAR FROM start_date)
		) d
		WHERE lq.employee_id = $1 AND lq.company_id = $2
			AND lq.leave_type = d.leave_type AND lq.year = d.year
	`
	if _, err := q.Exec(ctx, restore, employeeID, companyID, after, leave.StatusApproved); err != nil {
		return nil, fmt.Errorf("failed to restore leave balances for employee %s: %w", employeeID, err)
	}

	query := `
		UPDATE leave_requests
		SET status = $1, updated_at = NOW()
		WHERE employee_id = $2 AND company_id = $3
			AND start_date > $4
			AND status IN ($5, $6)
		RETURNING id, employee_id, leave_type, start_date, end_date, days, status
	`

	rows, err := q.Query(ctx, query, leave.StatusCancelled, employeeID, companyID, after, leave.StatusApproved, leave.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel leaves for employee %s: %w", employeeID, err)
	}
	defer rows.Close()

	var cancelled []leave.LeaveRecord
	for rows.Next() {
		var l leave.LeaveRecord
		err := rows.Scan(&l.ID, &l.EmployeeID, &l.LeaveType, &l.StartDate, &l.EndDate, &l.Days, &l.Status)
		if err != nil {
			return nil, err
		}
		cancelled = append(cancelled, l)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// UnusedEntitledDays implements leave.LeaveRepository.
func (r *leaveRepositoryImpl) UnusedEntitledDays(ctx context.Context, employeeID string, companyID string, year int) (float64, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(entitled_days - used_days), 0)
		FROM leave_quotas
		WHERE employee_id = $1 AND company_id = $2 AND year = $3
			AND encashable = TRUE
	`

	var unused float64
	err := q.QueryRow(ctx, query, employeeID, companyID, year).Scan(&unused)
	if err != nil {
		return 0, fmt.Errorf("failed to get unused leave days for employee %s: %w", employeeID, err)
	}
	return unused, nil
}
